package ofctrl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ovnflow/controller/internal/ofp"
)

// resolveMeter turns a meter extension-table entry's name into a unit
// and band list. Names beginning with ReservedMeterPrefix are decoded
// inline rather than looked up against the catalog.
func (c *Controller) resolveMeter(name string) (ofp.MeterUnit, []ofp.MeterBand, error) {
	if strings.HasPrefix(name, ReservedMeterPrefix) {
		return parseInlineMeterSpec(name[ReservedMeterPrefixLen:])
	}

	unit, bands, ok := c.Meters.Lookup(name)
	if !ok {
		return "", nil, fmt.Errorf("unknown meter %q", name)
	}
	return unit, bands, nil
}

// parseInlineMeterSpec decodes the bytes following ReservedMeterPrefix:
//
//	<unit>;<rate>:<burst>[,<rate>:<burst>...]
func parseInlineMeterSpec(spec string) (ofp.MeterUnit, []ofp.MeterBand, error) {
	unitStr, rest, ok := strings.Cut(spec, ";")
	if !ok {
		return "", nil, fmt.Errorf("missing ';' separator")
	}

	var unit ofp.MeterUnit
	switch unitStr {
	case string(ofp.MeterUnitPktps):
		unit = ofp.MeterUnitPktps
	case string(ofp.MeterUnitKbps):
		unit = ofp.MeterUnitKbps
	default:
		return "", nil, fmt.Errorf("unknown meter unit %q", unitStr)
	}

	var bands []ofp.MeterBand
	for _, raw := range strings.Split(rest, ",") {
		if raw == "" {
			continue
		}
		rateStr, burstStr, ok := strings.Cut(raw, ":")
		if !ok {
			return "", nil, fmt.Errorf("band %q: expected rate:burst", raw)
		}
		rate, err := strconv.ParseUint(rateStr, 10, 32)
		if err != nil {
			return "", nil, fmt.Errorf("band %q rate: %w", raw, err)
		}
		burst, err := strconv.ParseUint(burstStr, 10, 32)
		if err != nil {
			return "", nil, fmt.Errorf("band %q burst: %w", raw, err)
		}
		bands = append(bands, ofp.MeterBand{Type: "drop", Rate: uint32(rate), Burst: uint32(burst)})
	}
	if len(bands) == 0 {
		return "", nil, fmt.Errorf("no bands")
	}
	return unit, bands, nil
}
