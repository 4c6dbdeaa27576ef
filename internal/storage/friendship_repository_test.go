package storage

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tripplanner/internal/models"
)

// newTestDB 打开一个临时 SQLite 库并迁移测试用到的表。
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	err = db.AutoMigrate(
		&models.FriendshipEdge{},
		&models.Itinerary{},
		&models.ItineraryLike{},
		&models.ItineraryRecommendation{},
		&models.ItineraryComment{},
	)
	if err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	return db
}

func TestDeleteEdgeAllowsRecreate(t *testing.T) {
	ctx := context.Background()
	repo := NewGormFriendshipRepository(newTestDB(t))

	edge := &models.FriendshipEdge{OwnerID: 1, OtherID: 2, Status: models.EdgeStatusRequestSent}
	if err := repo.CreateEdge(ctx, edge); err != nil {
		t.Fatalf("CreateEdge: %v", err)
	}
	if err := repo.DeleteEdge(ctx, 1, 2); err != nil {
		t.Fatalf("DeleteEdge: %v", err)
	}

	// 取消请求后重新发送：(owner_id, other_id) 唯一索引不能被已删除的行占用
	if err := repo.CreateEdge(ctx, &models.FriendshipEdge{OwnerID: 1, OtherID: 2, Status: models.EdgeStatusRequestSent}); err != nil {
		t.Fatalf("重新创建同向边失败: %v", err)
	}
	got, err := repo.GetEdge(ctx, 1, 2)
	if err != nil || got == nil {
		t.Fatalf("GetEdge after recreate: edge=%v err=%v", got, err)
	}
	if got.Status != models.EdgeStatusRequestSent {
		t.Errorf("recreated edge status = %q, want %q", got.Status, models.EdgeStatusRequestSent)
	}
}

func TestRemoveFriendEdgesAllowRebefriend(t *testing.T) {
	ctx := context.Background()
	repo := NewGormFriendshipRepository(newTestDB(t))

	for _, pair := range [][2]uint{{1, 2}, {2, 1}} {
		edge := &models.FriendshipEdge{OwnerID: pair[0], OtherID: pair[1], Status: models.EdgeStatusFriend}
		if err := repo.CreateEdge(ctx, edge); err != nil {
			t.Fatalf("CreateEdge %v: %v", pair, err)
		}
	}
	if err := repo.DeleteEdge(ctx, 1, 2); err != nil {
		t.Fatalf("DeleteEdge 1->2: %v", err)
	}
	if err := repo.DeleteEdge(ctx, 2, 1); err != nil {
		t.Fatalf("DeleteEdge 2->1: %v", err)
	}

	// 删除好友后再次走完整的请求/接受流程
	if err := repo.CreateEdge(ctx, &models.FriendshipEdge{OwnerID: 1, OtherID: 2, Status: models.EdgeStatusRequestSent}); err != nil {
		t.Fatalf("重新发送请求失败: %v", err)
	}
	if err := repo.CreateEdge(ctx, &models.FriendshipEdge{OwnerID: 2, OtherID: 1, Status: models.EdgeStatusFriend}); err != nil {
		t.Fatalf("重新创建反向边失败: %v", err)
	}
	ids, err := repo.ListFriendIDs(ctx, 2)
	if err != nil {
		t.Fatalf("ListFriendIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Errorf("friend ids = %v, want [1]", ids)
	}
}

func TestDeleteAbsentEdgeIsNoError(t *testing.T) {
	repo := NewGormFriendshipRepository(newTestDB(t))
	if err := repo.DeleteEdge(context.Background(), 7, 8); err != nil {
		t.Errorf("DeleteEdge absent = %v, want nil", err)
	}
}
