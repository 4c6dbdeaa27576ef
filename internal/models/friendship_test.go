package models

import "testing"

func TestDeriveFriendshipState(t *testing.T) {
	requestSent := &FriendshipEdge{Status: EdgeStatusRequestSent}
	friend := &FriendshipEdge{Status: EdgeStatusFriend}

	cases := []struct {
		name    string
		own     *FriendshipEdge
		reverse *FriendshipEdge
		want    FriendshipState
	}{
		{"no edges", nil, nil, StateNotFriend},
		{"own request pending", requestSent, nil, StateRequestSent},
		{"own friend edge", friend, nil, StateFriend},
		{"incoming request", nil, requestSent, StateAcceptRequest},
		{"reverse friend edge", nil, friend, StateFriend},
		// 自己的边优先于对方的边
		{"own wins over reverse", friend, requestSent, StateFriend},
		{"own request wins over reverse friend", requestSent, friend, StateRequestSent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveFriendshipState(tc.own, tc.reverse); got != tc.want {
				t.Errorf("DeriveFriendshipState = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDeriveFriendshipStateUnknownStatus(t *testing.T) {
	// 未知的边状态按不存在处理
	weird := &FriendshipEdge{Status: EdgeStatus("blocked")}
	if got := DeriveFriendshipState(weird, nil); got != StateNotFriend {
		t.Errorf("unknown own status = %q, want %q", got, StateNotFriend)
	}
	if got := DeriveFriendshipState(nil, weird); got != StateNotFriend {
		t.Errorf("unknown reverse status = %q, want %q", got, StateNotFriend)
	}
}
