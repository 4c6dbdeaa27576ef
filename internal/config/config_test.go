package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.AppName != "TripPlanner" {
		t.Errorf("AppName = %q, want TripPlanner", cfg.AppName)
	}
	if cfg.Server.Port != "8080" || cfg.APIServer.Port != "8081" {
		t.Errorf("ports = (%s, %s), want (8080, 8081)", cfg.Server.Port, cfg.APIServer.Port)
	}
	if cfg.Kafka.ChatOutgoingTopic != "tp-chat-outgoing" {
		t.Errorf("ChatOutgoingTopic = %q", cfg.Kafka.ChatOutgoingTopic)
	}
	if cfg.Kafka.NotificationsTopic != "tp-notifications" {
		t.Errorf("NotificationsTopic = %q", cfg.Kafka.NotificationsTopic)
	}
	if cfg.Database.Type != "postgres" || cfg.Database.Port != 5432 {
		t.Errorf("database defaults = (%s, %d)", cfg.Database.Type, cfg.Database.Port)
	}
	if cfg.Auth.JWTExpiry != 24*time.Hour {
		t.Errorf("JWTExpiry = %v, want 24h", cfg.Auth.JWTExpiry)
	}
	if cfg.Auth.FederatedProvider != "google" {
		t.Errorf("FederatedProvider = %q, want google", cfg.Auth.FederatedProvider)
	}
	if cfg.Storage.Type != "local" {
		t.Errorf("Storage.Type = %q, want local", cfg.Storage.Type)
	}
	if cfg.WebSocket.PongWaitSeconds != 60 {
		t.Errorf("PongWaitSeconds = %d, want 60", cfg.WebSocket.PongWaitSeconds)
	}
}
