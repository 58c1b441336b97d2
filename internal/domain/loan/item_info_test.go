package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemInfo(t *testing.T) {
	info, err := ParseItemInfo(`{"version":1,"fields":{"title":"Gravitation","isbn":"0716703440"}}`)
	require.NoError(t, err)
	assert.Equal(t, "Gravitation", info.Get("title"))
	assert.Equal(t, "", info.Get("publisher"))
}

func TestParseItemInfo_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"legacy python dict", `{'title': 'Gravitation'}`},
		{"unknown key", `{"version":1,"fields":{},"recid":"12"}`},
		{"wrong version", `{"version":2,"fields":{"title":"x"}}`},
		{"missing version", `{"fields":{"title":"x"}}`},
		{"missing fields", `{"version":1}`},
		{"trailing data", `{"version":1,"fields":{}} {"version":1}`},
		{"non string value", `{"version":1,"fields":{"year":1999}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseItemInfo(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedItemInfo)
		})
	}
}

func TestItemInfo_EncodeRoundTrip(t *testing.T) {
	raw, err := ItemInfo{Fields: map[string]string{"title": "Spacetime"}}.Encode()
	require.NoError(t, err)

	info, err := ParseItemInfo(raw)
	require.NoError(t, err)
	assert.Equal(t, ItemInfoVersion, info.Version)
	assert.Equal(t, "Spacetime", info.Get("title"))
}

func TestLoan_RecallState(t *testing.T) {
	l := &Loan{Status: StatusExpired, OverdueLetterNumber: 2, OverdueLetterDate: "2024-01-01"}
	st := l.RecallState()
	assert.Equal(t, 2, st.Count)
	assert.Equal(t, "2024-01-01", st.LastLetterDate)
	assert.True(t, st.Expired)
	assert.True(t, l.Active())

	l.Status = StatusReturned
	assert.False(t, l.Active())
}
