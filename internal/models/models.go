// Package models defines the stored entities of the runledger schema:
// runs (Strava-owned, enriched in place from Garmin), garmin_runs (immutable
// staging), and sleep (one record per calendar day). Optional columns use
// null types so a missing provider field stays NULL rather than zero.
package models

import (
	"github.com/uptrace/bun"
	"gopkg.in/guregu/null.v3"
)

// Run is one outdoor or treadmill run, keyed by the Strava activity ID.
// Re-ingesting Strava data fully replaces the Strava-owned columns; the
// Garmin enrichment columns are written only by the matcher and survive
// Strava re-ingestion.
type Run struct {
	bun.BaseModel `bun:"table:runs,alias:r"`

	ID             int64       `bun:"id,pk" json:"id"`
	Date           string      `bun:"date,notnull" json:"date"`
	Name           null.String `bun:"name,type:varchar" json:"name"`
	DistanceKm     null.Float  `bun:"distance_km,type:float8" json:"distance_km"`
	DurationSec    null.Int    `bun:"duration_sec,type:bigint" json:"duration_sec"`
	PaceMinKm      null.Float  `bun:"pace_min_km,type:float8" json:"pace_min_km"`
	AvgHR          null.Int    `bun:"avg_hr,type:bigint" json:"avg_hr"`
	MaxHR          null.Int    `bun:"max_hr,type:bigint" json:"max_hr"`
	ElevationGain  null.Float  `bun:"elevation_gain,type:float8" json:"elevation_gain"`
	TempC          null.Float  `bun:"temp_c,type:float8" json:"temp_c"`
	Humidity       null.Float  `bun:"humidity,type:float8" json:"humidity"`
	Weather        null.String `bun:"weather,type:varchar" json:"weather"`
	RelativeEffort null.Int    `bun:"relative_effort,type:bigint" json:"relative_effort"`
	HourOfDay      int         `bun:"hour_of_day" json:"hour_of_day"`
	DayOfWeek      string      `bun:"day_of_week" json:"day_of_week"`
	Calories       null.Int    `bun:"calories,type:bigint" json:"calories"`
	GelsEstimated  null.Int    `bun:"gels_estimated,type:bigint" json:"gels_estimated"`
	CarbsG         null.Int    `bun:"carbs_g,type:bigint" json:"carbs_g"`

	// Garmin enrichment, copied from the matched GarminRun. Zone durations
	// are stored in whole seconds here (the staging table keeps milliseconds).
	GarminActivityID    null.Int   `bun:"garmin_activity_id,type:bigint" json:"garmin_activity_id"`
	AerobicTE           null.Float `bun:"aerobic_te,type:float8" json:"aerobic_te"`
	AnaerobicTE         null.Float `bun:"anaerobic_te,type:float8" json:"anaerobic_te"`
	VO2Max              null.Float `bun:"vo2max,type:float8" json:"vo2max"`
	TrainingLoad        null.Float `bun:"training_load,type:float8" json:"training_load"`
	AvgPower            null.Float `bun:"avg_power,type:float8" json:"avg_power"`
	MaxPower            null.Float `bun:"max_power,type:float8" json:"max_power"`
	AvgRunCadence       null.Float `bun:"avg_run_cadence,type:float8" json:"avg_run_cadence"`
	AvgGroundContactMs  null.Float `bun:"avg_ground_contact_ms,type:float8" json:"avg_ground_contact_ms"`
	AvgStrideLengthCm   null.Float `bun:"avg_stride_length_cm,type:float8" json:"avg_stride_length_cm"`
	AvgVerticalOscCm    null.Float `bun:"avg_vertical_osc_cm,type:float8" json:"avg_vertical_osc_cm"`
	HRZone1Sec          null.Int   `bun:"hr_zone_1_sec,type:bigint" json:"hr_zone_1_sec"`
	HRZone2Sec          null.Int   `bun:"hr_zone_2_sec,type:bigint" json:"hr_zone_2_sec"`
	HRZone3Sec          null.Int   `bun:"hr_zone_3_sec,type:bigint" json:"hr_zone_3_sec"`
	HRZone4Sec          null.Int   `bun:"hr_zone_4_sec,type:bigint" json:"hr_zone_4_sec"`
	HRZone5Sec          null.Int   `bun:"hr_zone_5_sec,type:bigint" json:"hr_zone_5_sec"`
}

// GarminRun is one Garmin-recorded activity in its own primary key space.
// The table is an immutable staging area feeding the matcher: rows are
// inserted once and never corrected in place. Heart-rate-zone durations are
// kept in milliseconds exactly as exported.
type GarminRun struct {
	bun.BaseModel `bun:"table:garmin_runs,alias:g"`

	ActivityID         int64       `bun:"activity_id,pk" json:"activity_id"`
	Date               string      `bun:"date,notnull" json:"date"`
	Name               null.String `bun:"name,type:varchar" json:"name"`
	ActivityType       string      `bun:"activity_type" json:"activity_type"`
	DistanceKm         null.Float  `bun:"distance_km,type:float8" json:"distance_km"`
	DurationSec        null.Int    `bun:"duration_sec,type:bigint" json:"duration_sec"`
	AvgHR              null.Int    `bun:"avg_hr,type:bigint" json:"avg_hr"`
	MaxHR              null.Int    `bun:"max_hr,type:bigint" json:"max_hr"`
	Calories           null.Int    `bun:"calories,type:bigint" json:"calories"`
	AerobicTE          null.Float  `bun:"aerobic_te,type:float8" json:"aerobic_te"`
	AnaerobicTE        null.Float  `bun:"anaerobic_te,type:float8" json:"anaerobic_te"`
	VO2Max             null.Float  `bun:"vo2max,type:float8" json:"vo2max"`
	TrainingLoad       null.Float  `bun:"training_load,type:float8" json:"training_load"`
	AvgPower           null.Float  `bun:"avg_power,type:float8" json:"avg_power"`
	MaxPower           null.Float  `bun:"max_power,type:float8" json:"max_power"`
	AvgRunCadence      null.Float  `bun:"avg_run_cadence,type:float8" json:"avg_run_cadence"`
	AvgGroundContactMs null.Float  `bun:"avg_ground_contact_ms,type:float8" json:"avg_ground_contact_ms"`
	AvgStrideLengthCm  null.Float  `bun:"avg_stride_length_cm,type:float8" json:"avg_stride_length_cm"`
	AvgVerticalOscCm   null.Float  `bun:"avg_vertical_osc_cm,type:float8" json:"avg_vertical_osc_cm"`
	HRZone1Ms          null.Int    `bun:"hr_zone_1_ms,type:bigint" json:"hr_zone_1_ms"`
	HRZone2Ms          null.Int    `bun:"hr_zone_2_ms,type:bigint" json:"hr_zone_2_ms"`
	HRZone3Ms          null.Int    `bun:"hr_zone_3_ms,type:bigint" json:"hr_zone_3_ms"`
	HRZone4Ms          null.Int    `bun:"hr_zone_4_ms,type:bigint" json:"hr_zone_4_ms"`
	HRZone5Ms          null.Int    `bun:"hr_zone_5_ms,type:bigint" json:"hr_zone_5_ms"`
}

// SleepRecord is one calendar day's sleep and readiness summary from Oura.
// The calendar date is the primary key; re-ingestion fully replaces the row.
type SleepRecord struct {
	bun.BaseModel `bun:"table:sleep,alias:s"`

	Date           string   `bun:"date,pk" json:"date"`
	SleepScore     null.Int `bun:"sleep_score,type:bigint" json:"sleep_score"`
	ReadinessScore null.Int `bun:"readiness_score,type:bigint" json:"readiness_score"`
	HRV            null.Int `bun:"hrv,type:bigint" json:"hrv"`
	RestingHR      null.Int `bun:"resting_hr,type:bigint" json:"resting_hr"`
	DeepSleepMin   null.Int `bun:"deep_sleep_min,type:bigint" json:"deep_sleep_min"`
	RemSleepMin    null.Int `bun:"rem_sleep_min,type:bigint" json:"rem_sleep_min"`
	LightSleepMin  null.Int `bun:"light_sleep_min,type:bigint" json:"light_sleep_min"`
	TotalSleepMin  null.Int `bun:"total_sleep_min,type:bigint" json:"total_sleep_min"`
}

// RunWithSleep is the derived read-time join of a Run with the sleep record
// attributable to the night before the run: the same-day record for morning
// runs (started before noon), the prior day's record otherwise. It is never
// materialized; the store recomputes it per query.
type RunWithSleep struct {
	Run `bun:",extend"`

	SleepScore     null.Int `bun:"sleep_score,type:bigint" json:"sleep_score"`
	ReadinessScore null.Int `bun:"readiness_score,type:bigint" json:"readiness_score"`
	HRV            null.Int `bun:"hrv,type:bigint" json:"hrv"`
	RestingHR      null.Int `bun:"resting_hr,type:bigint" json:"resting_hr"`
	DeepSleepMin   null.Int `bun:"deep_sleep_min,type:bigint" json:"deep_sleep_min"`
	RemSleepMin    null.Int `bun:"rem_sleep_min,type:bigint" json:"rem_sleep_min"`
	LightSleepMin  null.Int `bun:"light_sleep_min,type:bigint" json:"light_sleep_min"`
	TotalSleepMin  null.Int `bun:"total_sleep_min,type:bigint" json:"total_sleep_min"`
}
