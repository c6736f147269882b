package daily

import (
	"reflect"
	"testing"
	"time"

	"github.com/2beens/dailymetrics/internal/wellness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDate = wellness.MustParseDate("2024-01-01")

func TestMerge_NoExistingRow(t *testing.T) {
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	row := Merge(nil, "u1", testDate, Patch{
		SleepScore: SetValue(81.0),
		DistanceM:  Set[float64](nil),
	}, now)

	assert.Equal(t, "u1", row.UserID)
	assert.Equal(t, testDate, row.Date)
	require.NotNil(t, row.SleepScore)
	assert.Equal(t, 81.0, *row.SleepScore)
	assert.Nil(t, row.DistanceM)
	assert.Nil(t, row.RecoveryScore)
	assert.Equal(t, now, row.LastComputedAt)
}

func TestMerge_PreservesUnsetFields(t *testing.T) {
	existing := &Row{
		UserID:         "u1",
		Date:           testDate,
		RecoveryScore:  wellness.Int(72),
		StrainScore:    wellness.Int(110),
		HRVMs:          wellness.Float(55),
		Steps:          wellness.Int(9000),
		TotalCalories:  wellness.Float(2400),
		ActiveCalories: wellness.Float(300),
	}

	row := Merge(existing, "u1", testDate, Patch{
		ActiveCalories: Set[float64](nil),
		SleepScore:     SetValue(70.0),
	}, time.Now())

	require.NotNil(t, row.RecoveryScore)
	assert.Equal(t, int64(72), *row.RecoveryScore)
	assert.Equal(t, int64(110), *row.StrainScore)
	assert.Equal(t, 55.0, *row.HRVMs)
	assert.Equal(t, int64(9000), *row.Steps)
	assert.Equal(t, 2400.0, *row.TotalCalories)
	assert.Nil(t, row.ActiveCalories, "present-null must clear the stored value")
	assert.Equal(t, 70.0, *row.SleepScore)

	// existing row is untouched
	assert.Equal(t, 300.0, *existing.ActiveCalories)
	assert.Nil(t, existing.SleepScore)
}

func TestMerge_DoesNotAliasPatchValues(t *testing.T) {
	v := 40.0
	row := Merge(nil, "u1", testDate, Patch{StressAvg: Set(&v)}, time.Now())
	v = 99
	assert.Equal(t, 40.0, *row.StressAvg)
}

// Every stored column except the key and the timestamp must be patchable.
func TestPatch_CoversAllRowColumns(t *testing.T) {
	rowType := reflect.TypeOf(Row{})
	patchType := reflect.TypeOf(Patch{})

	for i := 0; i < rowType.NumField(); i++ {
		name := rowType.Field(i).Name
		switch name {
		case "UserID", "Date", "LastComputedAt":
			continue
		}
		_, ok := patchType.FieldByName(name)
		assert.True(t, ok, "patch is missing field %s", name)
	}
	assert.Equal(t, rowType.NumField()-3, patchType.NumField())
}

func TestMerge_AppliesEveryPatchField(t *testing.T) {
	patch := Patch{}
	pv := reflect.ValueOf(&patch).Elem()
	for i := 0; i < pv.NumField(); i++ {
		field := pv.Field(i)
		field.FieldByName("Set").SetBool(true)
		valuePtr := reflect.New(field.FieldByName("Value").Type().Elem())
		switch valuePtr.Elem().Kind() {
		case reflect.Float64:
			valuePtr.Elem().SetFloat(1)
		case reflect.Int64:
			valuePtr.Elem().SetInt(1)
		}
		field.FieldByName("Value").Set(valuePtr)
	}

	row := Merge(nil, "u1", testDate, patch, time.Now())
	rv := reflect.ValueOf(row)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() != reflect.Ptr {
			continue
		}
		assert.False(t, f.IsNil(), "field %s not applied by Merge", rv.Type().Field(i).Name)
	}
}

func TestRow_Value(t *testing.T) {
	row := &Row{
		RecoveryScore:    wellness.Int(60),
		HRVMs:            wellness.Float(48.5),
		SleepDurationMin: wellness.Float(430),
	}
	assert.Equal(t, 60.0, *row.Value(wellness.MetricRecoveryScore))
	assert.Equal(t, 48.5, *row.Value(wellness.MetricHRV))
	assert.Equal(t, 430.0, *row.Value(wellness.MetricSleepDurationMin))
	assert.Nil(t, row.Value(wellness.MetricSteps))
	assert.Nil(t, (*Row)(nil).Value(wellness.MetricHRV))
}
