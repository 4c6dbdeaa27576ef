package models

import "testing"

func TestDestinationsRoundTrip(t *testing.T) {
	itinerary := &Itinerary{}
	if err := itinerary.SetDestinations([]string{"Kyoto", "Osaka"}); err != nil {
		t.Fatalf("SetDestinations: %v", err)
	}
	destinations, err := itinerary.GetDestinations()
	if err != nil {
		t.Fatalf("GetDestinations: %v", err)
	}
	if len(destinations) != 2 || destinations[0] != "Kyoto" || destinations[1] != "Osaka" {
		t.Errorf("destinations = %v, want [Kyoto Osaka]", destinations)
	}
}

func TestDestinationsMissingReadsAsEmpty(t *testing.T) {
	itinerary := &Itinerary{}
	destinations, err := itinerary.GetDestinations()
	if err != nil {
		t.Fatalf("GetDestinations: %v", err)
	}
	if len(destinations) != 0 {
		t.Errorf("destinations = %v, want empty", destinations)
	}
}

func TestCommentMatchesByValue(t *testing.T) {
	base := ItineraryComment{ItineraryID: 1, UserID: 2, Text: "nice", TimestampMs: 1000}

	same := base
	same.Username = "someone else" // 用户名不参与值相等判断
	if !base.Matches(&same) {
		t.Error("comments differing only in snapshot fields should match")
	}

	differentTime := base
	differentTime.TimestampMs = 2000
	if base.Matches(&differentTime) {
		t.Error("comments with different timestamps must not match")
	}

	differentAuthor := base
	differentAuthor.UserID = 3
	if base.Matches(&differentAuthor) {
		t.Error("comments from different authors must not match")
	}
}
