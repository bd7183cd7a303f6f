package ofctrl

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ovnflow/controller/internal/ofp"
)

// Group names are opaque strings as far as the desired/existing tables
// are concerned; parsing them into bucket lists is, like action parsing,
// treated as an assumed external codec elsewhere in this package.
// parseGroupSpec supplies the minimal concrete grammar the core needs to
// actually emit a GroupMod:
//
//	<type>|<bucket>[;<bucket>...]
//	bucket := <weight>:<watch_port>:<watch_group>:<actions_hex>
func parseGroupSpec(spec string) (ofp.GroupType, []ofp.Bucket, error) {
	typeStr, rest, ok := strings.Cut(spec, "|")
	if !ok {
		return 0, nil, fmt.Errorf("missing '|' separator")
	}

	gtype, err := parseGroupType(typeStr)
	if err != nil {
		return 0, nil, err
	}

	var buckets []ofp.Bucket
	for _, raw := range strings.Split(rest, ";") {
		if raw == "" {
			continue
		}
		b, err := parseBucket(raw)
		if err != nil {
			return 0, nil, fmt.Errorf("bucket %q: %w", raw, err)
		}
		buckets = append(buckets, b)
	}
	if len(buckets) == 0 {
		return 0, nil, fmt.Errorf("no buckets")
	}
	return gtype, buckets, nil
}

func parseGroupType(s string) (ofp.GroupType, error) {
	switch s {
	case "all":
		return ofp.GroupTypeAll, nil
	case "select":
		return ofp.GroupTypeSelect, nil
	case "indirect":
		return ofp.GroupTypeIndirect, nil
	case "ff":
		return ofp.GroupTypeFF, nil
	default:
		return 0, fmt.Errorf("unknown group type %q", s)
	}
}

func parseBucket(s string) (ofp.Bucket, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) != 4 {
		return ofp.Bucket{}, fmt.Errorf("expected weight:watch_port:watch_group:actions")
	}
	weight, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return ofp.Bucket{}, fmt.Errorf("weight: %w", err)
	}
	watchPort, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return ofp.Bucket{}, fmt.Errorf("watch_port: %w", err)
	}
	watchGroup, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return ofp.Bucket{}, fmt.Errorf("watch_group: %w", err)
	}
	actions, err := hex.DecodeString(parts[3])
	if err != nil {
		return ofp.Bucket{}, fmt.Errorf("actions: %w", err)
	}
	return ofp.Bucket{
		Weight:     uint16(weight),
		WatchPort:  uint32(watchPort),
		WatchGroup: uint32(watchGroup),
		Actions:    actions,
	}, nil
}
