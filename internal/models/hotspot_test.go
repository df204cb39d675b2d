package models_test

import (
	"sync"
	"testing"

	"nagarneuron/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestStringList_ValueScan(t *testing.T) {
	in := models.StringList{"high_past_complaints", "rainfall_forecast", "traffic density"}

	v, err := in.Value()
	require.NoError(t, err)

	var out models.StringList
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)

	// drivers may hand back text as string rather than []byte
	var fromString models.StringList
	require.NoError(t, fromString.Scan(`{"a","b"}`))
	assert.Equal(t, models.StringList{"a", "b"}, fromString)
}

func TestStringList_Nil(t *testing.T) {
	var s models.StringList
	v, err := s.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Scan(nil))
	assert.Nil(t, s)
}

func TestHotspot_SchemaParses(t *testing.T) {
	sch, err := schema.Parse(&models.Hotspot{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	f := sch.LookUpField("Factors")
	require.NotNil(t, f)
	assert.Equal(t, schema.DataType("text"), f.DataType)
}
