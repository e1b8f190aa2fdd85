package constants

import (
	"regexp"
	"testing"
	"time"
)

func TestTimeFormat(t *testing.T) {
	// Check that a time zone component exists in the global time format.
	re := regexp.MustCompile("^.*0700$")
	if !re.MatchString(TimeFormatYearSecondsTZ) {
		t.Fatal("Unexpected time format - missing time zone component.")
	}
	// Check that the global regexp can match constant TimeFormatYearSeconds.
	re = regexp.MustCompile(TimeFormatYearSecondsRegex)
	if !re.MatchString(TimeFormatYearSeconds) {
		t.Fatal("Mismatch between TimeFormatYearSeconds and regexp in constant TimeFormatYearSecondsRegex.")
	}
}

func TestDagStartDate(t *testing.T) {
	d, err := time.Parse(time.RFC3339, DagStartDate)
	if err != nil {
		t.Fatal("unable to parse DagStartDate: ", err)
	}
	if d.Location() != time.UTC || d.Hour() != 0 {
		t.Fatalf("expected DagStartDate at midnight UTC, got %v", d)
	}
}
