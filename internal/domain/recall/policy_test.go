package recall

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func TestDecideFromString_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		lastLetter string
		today      string
		want       Tier
	}{
		{"first letter without previous date", 0, "", "2024-01-10", Tier1},
		{"second letter exactly seven days later", 1, "2024-01-01", "2024-01-08", Tier2},
		{"second letter after six days is not due", 1, "2024-01-01", "2024-01-07", TierNone},
		{"third letter exactly three days later", 2, "2024-01-01", "2024-01-04", Tier3},
		{"third letter after two days is not due", 2, "2024-01-01", "2024-01-03", TierNone},
		{"repeat final tier four days later", 3, "2024-01-01", "2024-01-05", Tier3},
		{"repeat final tier for high counts", 9, "2024-01-01", "2024-01-04", Tier3},
		{"repeat final tier not yet due", 5, "2024-01-01", "2024-01-02", TierNone},
		{"malformed date fails closed", 2, "not-a-date", "2024-01-10", TierNone},
		{"empty date fails closed", 1, "", "2024-03-10", TierNone},
		{"timestamp form is accepted", 1, "2024-01-01 13:45:00", "2024-01-08", Tier2},
		{"rfc3339 form is accepted", 2, "2024-01-01T23:59:59Z", "2024-01-04", Tier3},
		{"date with trailing garbage after T fails closed", 1, "2024-01-01Tgarbage", "2024-03-10", TierNone},
		{"date with trailing text fails closed", 1, "2024-01-01 not a time", "2024-03-10", TierNone},
		{"date without seconds fails closed", 2, "2024-01-01 13:45", "2024-03-10", TierNone},
		{"negative count fails closed", -1, "2024-01-01", "2024-02-01", TierNone},
		{"letter sent in the future is not due", 1, "2024-02-01", "2024-01-10", TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecideFromString(tt.count, tt.lastLetter, date(t, tt.today))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecide_FirstLetterIgnoresDates(t *testing.T) {
	today := date(t, "2024-06-01")
	for _, last := range []string{"", "garbage", "2024-05-31", "2030-01-01"} {
		assert.Equal(t, Tier1, DecideFromString(0, last, today), "last=%q", last)
	}
	assert.Equal(t, Tier1, Decide(0, time.Time{}, false, today))
}

func TestDecide_GapBoundaries(t *testing.T) {
	last := date(t, "2024-02-26")
	for days := 0; days <= 20; days++ {
		today := last.AddDate(0, 0, days)

		want := TierNone
		if days >= SecondLetterGap {
			want = Tier2
		}
		assert.Equal(t, want, Decide(1, last, true, today), "count=1 days=%d", days)

		want = TierNone
		if days >= FinalLetterGap {
			want = Tier3
		}
		assert.Equal(t, want, Decide(2, last, true, today), "count=2 days=%d", days)
		assert.Equal(t, want, Decide(4, last, true, today), "count=4 days=%d", days)
	}
}

func TestDecide_IgnoresTimeOfDayAndLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	last := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	today := time.Date(2024, 1, 8, 0, 5, 0, 0, loc)

	assert.Equal(t, Tier2, Decide(1, last, true, today))
}

func TestDecide_MonotonicAsTimeAdvances(t *testing.T) {
	last := date(t, "2024-01-01")
	for count := 0; count <= 5; count++ {
		seen := TierNone
		for day := 0; day < 30; day++ {
			got := Decide(count, last, true, last.AddDate(0, 0, day))
			if seen != TierNone {
				assert.GreaterOrEqual(t, int(got), int(seen), "count=%d day=%d regressed", count, day)
			}
			if got != TierNone {
				seen = got
			}
		}
		assert.NotEqual(t, TierNone, seen, "count=%d never produced a letter", count)
	}
}

func TestDecide_Idempotent(t *testing.T) {
	last := date(t, "2024-01-01")
	today := date(t, "2024-01-09")
	first := Decide(3, last, true, today)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, Decide(3, last, true, today))
	}
}

func TestDecideState(t *testing.T) {
	st := State{Count: 1, LastLetterDate: "2024-01-01", Expired: true}
	assert.Equal(t, Tier2, DecideState(st, date(t, "2024-01-08")))
	assert.Equal(t, TierNone, DecideState(st, date(t, "2024-01-07")))
}

func TestTier_TemplateKey(t *testing.T) {
	assert.Equal(t, "RECALL1", Tier1.TemplateKey(KindLoan))
	assert.Equal(t, "RECALL3", Tier3.TemplateKey(KindLoan))
	assert.Equal(t, "ILL_RECALL2", Tier2.TemplateKey(KindILL))
	assert.Equal(t, "", TierNone.TemplateKey(KindLoan))
	assert.Equal(t, "tier2", Tier2.String())
	assert.Equal(t, "none", TierNone.String())
}
