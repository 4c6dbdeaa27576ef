package storage

import (
	"context"
	"testing"
)

func TestRemoveLikeAllowsRelike(t *testing.T) {
	ctx := context.Background()
	repo := NewGormItineraryRepository(newTestDB(t))

	if err := repo.AddLike(ctx, 10, 1); err != nil {
		t.Fatalf("AddLike: %v", err)
	}
	if err := repo.RemoveLike(ctx, 10, 1); err != nil {
		t.Fatalf("RemoveLike: %v", err)
	}

	// 取消点赞后再次点赞：唯一索引不能被已删除的成员行占用
	if err := repo.AddLike(ctx, 10, 1); err != nil {
		t.Fatalf("再次点赞失败: %v", err)
	}
	has, err := repo.HasLike(ctx, 10, 1)
	if err != nil || !has {
		t.Fatalf("HasLike after relike: has=%v err=%v", has, err)
	}
	count, err := repo.CountLikes(ctx, 10)
	if err != nil {
		t.Fatalf("CountLikes: %v", err)
	}
	if count != 1 {
		t.Errorf("like count = %d, want 1", count)
	}
}

func TestRemoveRecommendationAllowsRerecommend(t *testing.T) {
	ctx := context.Background()
	repo := NewGormItineraryRepository(newTestDB(t))

	if err := repo.AddRecommendation(ctx, 10, 1); err != nil {
		t.Fatalf("AddRecommendation: %v", err)
	}
	if err := repo.RemoveRecommendation(ctx, 10, 1); err != nil {
		t.Fatalf("RemoveRecommendation: %v", err)
	}
	if err := repo.AddRecommendation(ctx, 10, 1); err != nil {
		t.Fatalf("再次推荐失败: %v", err)
	}
	count, err := repo.CountRecommendations(ctx, 10)
	if err != nil {
		t.Fatalf("CountRecommendations: %v", err)
	}
	if count != 1 {
		t.Errorf("recommendation count = %d, want 1", count)
	}
}

func TestDestinationContainsArgEscapes(t *testing.T) {
	cases := []struct {
		name        string
		destination string
		want        string
	}{
		{"plain", "Tokyo", `["Tokyo"]`},
		{"embedded quote", `Hawai"i`, `["Hawai\"i"]`},
		{"backslash", `A\B`, `["A\\B"]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := destinationContainsArg(tc.destination)
			if err != nil {
				t.Fatalf("destinationContainsArg(%q): %v", tc.destination, err)
			}
			if got != tc.want {
				t.Errorf("destinationContainsArg(%q) = %s, want %s", tc.destination, got, tc.want)
			}
		})
	}
}
