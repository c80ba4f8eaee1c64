// Package convert normalizes raw provider fields into typed optional values.
// Every numeric boundary returns a null.Float or null.Int so that "absent"
// stays distinct from zero through all downstream arithmetic (pace, fueling,
// zone conversions). Malformed input never produces an error, only an
// invalid value.
package convert

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// MilesPerKm converts kilometers to statute miles.
const MilesPerKm = 0.621371

// Fueling protocol: first gel at mile 3, then one every 3 miles,
// applied to runs of 9 miles (14.48 km) or longer.
const (
	FuelingThresholdKm = 14.48
	CarbsPerGelGrams   = 30
)

// Float converts a raw field to an optional float. It accepts strings,
// JSON-decoded numerics, and nil; empty strings and non-numeric content
// yield an invalid value.
func Float(v any) null.Float {
	switch value := v.(type) {
	case nil:
		return null.Float{}
	case float64:
		return null.FloatFrom(value)
	case float32:
		return null.FloatFrom(float64(value))
	case int:
		return null.FloatFrom(float64(value))
	case int64:
		return null.FloatFrom(float64(value))
	case json.Number:
		f, err := value.Float64()
		if err != nil {
			return null.Float{}
		}
		return null.FloatFrom(f)
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return null.Float{}
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return null.Float{}
		}
		return null.FloatFrom(f)
	default:
		return null.Float{}
	}
}

// Int converts a raw field to an optional integer, truncating toward zero
// after float parsing so values such as "12.0" are tolerated.
func Int(v any) null.Int {
	f := Float(v)
	if !f.Valid {
		return null.Int{}
	}
	return null.IntFrom(int64(f.Float64))
}

// String converts a raw field to an optional string; empty means absent.
func String(v any) null.String {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}

// MetersToKm converts an optional distance in meters to kilometers.
func MetersToKm(m null.Float) null.Float {
	if !m.Valid {
		return null.Float{}
	}
	return null.FloatFrom(m.Float64 / 1000)
}

// CmToKm converts an optional distance in centimeters to kilometers.
func CmToKm(cm null.Float) null.Float {
	if !cm.Valid {
		return null.Float{}
	}
	return null.FloatFrom(cm.Float64 / 100000)
}

// MsToSec converts an optional duration in milliseconds to whole seconds,
// truncating the remainder.
func MsToSec(ms null.Int) null.Int {
	if !ms.Valid {
		return null.Int{}
	}
	return null.IntFrom(ms.Int64 / 1000)
}

// SecToMin converts an optional duration in seconds to whole minutes via
// integer division.
func SecToMin(sec null.Int) null.Int {
	if !sec.Valid {
		return null.Int{}
	}
	return null.IntFrom(sec.Int64 / 60)
}

// KmToMiles converts an optional distance in kilometers to miles.
func KmToMiles(km null.Float) null.Float {
	if !km.Valid {
		return null.Float{}
	}
	return null.FloatFrom(km.Float64 * MilesPerKm)
}

// Pace derives minutes per kilometer. It is present only when both inputs
// are present and the distance is positive.
func Pace(distanceKm null.Float, durationSec null.Float) null.Float {
	if !distanceKm.Valid || !durationSec.Valid || distanceKm.Float64 <= 0 {
		return null.Float{}
	}
	return null.FloatFrom((durationSec.Float64 / 60) / distanceKm.Float64)
}

// Fueling estimates gel count and carbohydrate grams for long runs.
// Runs shorter than the 9-mile threshold get no estimate at all.
func Fueling(distanceKm null.Float) (gels null.Int, carbsG null.Int) {
	if !distanceKm.Valid || distanceKm.Float64 < FuelingThresholdKm {
		return null.Int{}, null.Int{}
	}
	// The threshold 14.48 km converts to 8.9975 mi but counts as the 9-mile
	// boundary, so round to hundredths of a mile before flooring.
	miles := math.Round(distanceKm.Float64*MilesPerKm*100) / 100
	count := int64(math.Floor((miles-3)/3)) + 1
	if count < 0 {
		count = 0
	}
	return null.IntFrom(count), null.IntFrom(count * CarbsPerGelGrams)
}
