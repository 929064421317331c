package analytics

import (
	"fmt"
	"strings"
)

// FilterKind discriminates the Filter variants.
type FilterKind int

const (
	FilterNone FilterKind = iota
	FilterEventType
	FilterProperty
)

const (
	segmentEventTypePrefix = "event_type:"
	segmentPropertyPrefix  = "properties."
)

// Filter is an optional equality predicate applied to an aggregate query.
// Backends translate it into their own predicate syntax.
type Filter struct {
	Kind  FilterKind
	Key   string // property name; only set for FilterProperty
	Value string
}

// NoFilter matches every event.
func NoFilter() Filter {
	return Filter{Kind: FilterNone}
}

// ByEventType matches events whose event_type equals value.
func ByEventType(value string) Filter {
	return Filter{Kind: FilterEventType, Value: value}
}

// ByProperty matches events whose top-level property key equals value.
func ByProperty(key, value string) Filter {
	return Filter{Kind: FilterProperty, Key: key, Value: value}
}

// ParseSegment parses the segment query parameter:
//
//	""                      → NoFilter
//	"event_type:<value>"    → ByEventType
//	"properties.<key>=<v>"  → ByProperty
func ParseSegment(segment string) (Filter, error) {
	segment = strings.TrimSpace(segment)
	switch {
	case segment == "":
		return NoFilter(), nil

	case strings.HasPrefix(segment, segmentEventTypePrefix):
		value := strings.TrimPrefix(segment, segmentEventTypePrefix)
		if value == "" {
			return Filter{}, fmt.Errorf("segment %q: event_type value is empty", segment)
		}
		return ByEventType(value), nil

	case strings.HasPrefix(segment, segmentPropertyPrefix):
		key, value, ok := strings.Cut(strings.TrimPrefix(segment, segmentPropertyPrefix), "=")
		if !ok {
			return Filter{}, fmt.Errorf("segment %q: expected properties.<field>=<value>", segment)
		}
		if key == "" || value == "" {
			return Filter{}, fmt.Errorf("segment %q: property field and value must be non-empty", segment)
		}
		return ByProperty(key, value), nil
	}

	return Filter{}, fmt.Errorf("segment %q: expected event_type:<value> or properties.<field>=<value>", segment)
}

func (f Filter) String() string {
	switch f.Kind {
	case FilterEventType:
		return segmentEventTypePrefix + f.Value
	case FilterProperty:
		return segmentPropertyPrefix + f.Key + "=" + f.Value
	default:
		return ""
	}
}
