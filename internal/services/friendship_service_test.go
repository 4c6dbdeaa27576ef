package services

import (
	"context"
	"errors"
	"testing"

	"tripplanner/internal/config"
	"tripplanner/internal/models"
	"tripplanner/internal/storage"
)

func newFriendshipFixture() (*fakeFriendshipRepo, *fakeUserRepo, *fakeProducer, FriendshipService) {
	edgeRepo := newFakeFriendshipRepo()
	userRepo := newFakeUserRepo()
	producer := &fakeProducer{}
	kafkaCfg := config.KafkaConfig{NotificationsTopic: "tp-notifications"}
	svc := NewFriendshipService(edgeRepo, userRepo, producer, kafkaCfg)

	userRepo.addUser(&models.User{BaseModel: models.BaseModel{ID: 1}, Username: "alice", Email: "alice@example.com"})
	userRepo.addUser(&models.User{BaseModel: models.BaseModel{ID: 2}, Username: "bob", Email: "bob@example.com"})
	return edgeRepo, userRepo, producer, svc
}

func TestSendRequestCreatesAsymmetricStates(t *testing.T) {
	ctx := context.Background()
	_, _, producer, svc := newFriendshipFixture()

	if err := svc.SendRequest(ctx, 1, 2); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}

	if got := svc.CheckStatus(ctx, 1, 2); got != models.StateRequestSent {
		t.Errorf("sender state = %q, want %q", got, models.StateRequestSent)
	}
	if got := svc.CheckStatus(ctx, 2, 1); got != models.StateAcceptRequest {
		t.Errorf("recipient state = %q, want %q", got, models.StateAcceptRequest)
	}
	if producer.sentTo("tp-notifications") != 1 {
		t.Errorf("expected one friend-request notification, got %d", producer.sentTo("tp-notifications"))
	}
}

func TestSendRequestRejectsSelfAndDuplicates(t *testing.T) {
	ctx := context.Background()
	_, _, _, svc := newFriendshipFixture()

	if err := svc.SendRequest(ctx, 1, 1); !errors.Is(err, ErrFriendRequestSelf) {
		t.Errorf("self request error = %v, want ErrFriendRequestSelf", err)
	}
	if err := svc.SendRequest(ctx, 1, 99); !errors.Is(err, ErrRecipientNotFound) {
		t.Errorf("unknown recipient error = %v, want ErrRecipientNotFound", err)
	}

	if err := svc.SendRequest(ctx, 1, 2); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := svc.SendRequest(ctx, 1, 2); !errors.Is(err, ErrFriendRequestExists) {
		t.Errorf("duplicate request error = %v, want ErrFriendRequestExists", err)
	}
	// 对方已向自己发过请求时也不能再发
	if err := svc.SendRequest(ctx, 2, 1); !errors.Is(err, ErrFriendRequestExists) {
		t.Errorf("cross request error = %v, want ErrFriendRequestExists", err)
	}
}

func TestAcceptRequestMakesBothFriends(t *testing.T) {
	ctx := context.Background()
	_, _, producer, svc := newFriendshipFixture()

	if err := svc.SendRequest(ctx, 1, 2); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := svc.AcceptRequest(ctx, 2, 1); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}

	if got := svc.CheckStatus(ctx, 1, 2); got != models.StateFriend {
		t.Errorf("sender state = %q, want %q", got, models.StateFriend)
	}
	if got := svc.CheckStatus(ctx, 2, 1); got != models.StateFriend {
		t.Errorf("accepter state = %q, want %q", got, models.StateFriend)
	}
	if producer.sentTo("tp-notifications") != 2 {
		t.Errorf("expected request + accepted notifications, got %d", producer.sentTo("tp-notifications"))
	}
}

func TestAcceptRequestWithoutPendingFails(t *testing.T) {
	ctx := context.Background()
	_, _, _, svc := newFriendshipFixture()

	if err := svc.AcceptRequest(ctx, 2, 1); !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("accept without pending = %v, want ErrNoPendingRequest", err)
	}
	// 自己发出的请求不能由自己接受
	if err := svc.SendRequest(ctx, 1, 2); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := svc.AcceptRequest(ctx, 1, 2); !errors.Is(err, ErrNoPendingRequest) {
		t.Errorf("accept own request = %v, want ErrNoPendingRequest", err)
	}
}

func TestCancelRequestRestoresNotFriend(t *testing.T) {
	ctx := context.Background()
	_, _, _, svc := newFriendshipFixture()

	if err := svc.CancelRequest(ctx, 1, 2); !errors.Is(err, ErrNoRequestToCancel) {
		t.Errorf("cancel without request = %v, want ErrNoRequestToCancel", err)
	}

	if err := svc.SendRequest(ctx, 1, 2); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := svc.CancelRequest(ctx, 1, 2); err != nil {
		t.Fatalf("CancelRequest: %v", err)
	}

	if got := svc.CheckStatus(ctx, 1, 2); got != models.StateNotFriend {
		t.Errorf("sender state after cancel = %q, want %q", got, models.StateNotFriend)
	}
	if got := svc.CheckStatus(ctx, 2, 1); got != models.StateNotFriend {
		t.Errorf("recipient state after cancel = %q, want %q", got, models.StateNotFriend)
	}
}

func TestRemoveFriendDeletesBothEdges(t *testing.T) {
	ctx := context.Background()
	edgeRepo, _, _, svc := newFriendshipFixture()

	if err := svc.SendRequest(ctx, 1, 2); err != nil {
		t.Fatalf("SendRequest: %v", err)
	}
	if err := svc.AcceptRequest(ctx, 2, 1); err != nil {
		t.Fatalf("AcceptRequest: %v", err)
	}
	if err := svc.RemoveFriend(ctx, 1, 2); err != nil {
		t.Fatalf("RemoveFriend: %v", err)
	}

	if got := svc.CheckStatus(ctx, 1, 2); got != models.StateNotFriend {
		t.Errorf("state after removal = %q, want %q", got, models.StateNotFriend)
	}
	if got := svc.CheckStatus(ctx, 2, 1); got != models.StateNotFriend {
		t.Errorf("reverse state after removal = %q, want %q", got, models.StateNotFriend)
	}
	if len(edgeRepo.edges) != 0 {
		t.Errorf("expected no edges left, got %d", len(edgeRepo.edges))
	}

	if err := svc.RemoveFriend(ctx, 1, 2); !errors.Is(err, ErrNotFriends) {
		t.Errorf("remove non-friend = %v, want ErrNotFriends", err)
	}
}

func TestListAndCountFriends(t *testing.T) {
	ctx := context.Background()
	_, userRepo, _, svc := newFriendshipFixture()
	userRepo.addUser(&models.User{BaseModel: models.BaseModel{ID: 3}, Username: "carol", Email: "carol@example.com"})

	for _, otherID := range []uint{2, 3} {
		if err := svc.SendRequest(ctx, 1, otherID); err != nil {
			t.Fatalf("SendRequest(1, %d): %v", otherID, err)
		}
		if err := svc.AcceptRequest(ctx, otherID, 1); err != nil {
			t.Fatalf("AcceptRequest(%d, 1): %v", otherID, err)
		}
	}

	friends, err := svc.ListFriends(ctx, 1)
	if err != nil {
		t.Fatalf("ListFriends: %v", err)
	}
	if len(friends) != 2 {
		t.Fatalf("len(friends) = %d, want 2", len(friends))
	}
	if friends[0].Username != "bob" || friends[1].Username != "carol" {
		t.Errorf("friends = [%s, %s], want [bob, carol]", friends[0].Username, friends[1].Username)
	}

	count, err := svc.CountFriends(ctx, 1)
	if err != nil {
		t.Fatalf("CountFriends: %v", err)
	}
	if count != 2 {
		t.Errorf("CountFriends = %d, want 2", count)
	}
	count, err = svc.CountFriends(ctx, 2)
	if err != nil {
		t.Fatalf("CountFriends: %v", err)
	}
	if count != 1 {
		t.Errorf("CountFriends(2) = %d, want 1", count)
	}
}

// erroringFriendshipRepo 所有查询都失败，用于验证状态读取的最安全默认值。
type erroringFriendshipRepo struct {
	fakeFriendshipRepo
}

func (e *erroringFriendshipRepo) GetEdge(_ context.Context, _, _ uint) (*models.FriendshipEdge, error) {
	return nil, errors.New("storage unavailable")
}

func (e *erroringFriendshipRepo) WithTx(ctx context.Context, fn func(repo storage.FriendshipRepository) error) error {
	return fn(e)
}

func TestCheckStatusFailsSafeToNotFriend(t *testing.T) {
	ctx := context.Background()
	repo := &erroringFriendshipRepo{*newFakeFriendshipRepo()}
	svc := NewFriendshipService(repo, newFakeUserRepo(), nil, config.KafkaConfig{})

	if got := svc.CheckStatus(ctx, 1, 2); got != models.StateNotFriend {
		t.Errorf("state on storage failure = %q, want %q", got, models.StateNotFriend)
	}
}
