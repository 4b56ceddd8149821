package events

import (
	"fmt"
	"log"
	"sync"
	"time"

	"shieldpool/internal/clients"
	"shieldpool/internal/config"
)

var (
	natsClient *clients.NATSClient
	natsOnce   sync.Once
)

// ============ Event payloads ============

// CommitmentInsertedEvent is broadcast after every successful tree insert.
type CommitmentInsertedEvent struct {
	Commitment string    `json:"commitment"`
	LeafIndex  uint64    `json:"leaf_index"`
	Root       string    `json:"root"`
	Operation  string    `json:"operation"` // shield | mint | transfer
	Timestamp  time.Time `json:"timestamp"`
}

// NullifierSpentEvent is broadcast when a note is consumed.
type NullifierSpentEvent struct {
	Nullifier string    `json:"nullifier"`
	Operation string    `json:"operation"` // transfer | unshield
	Timestamp time.Time `json:"timestamp"`
}

// AssetStateEvent is broadcast when an asset enters or leaves the pool.
type AssetStateEvent struct {
	AssetID   string    `json:"asset_id"`
	State     string    `json:"state"` // public | shielded
	Timestamp time.Time `json:"timestamp"`
}

// RootUpdatedEvent is broadcast with every new tree root.
type RootUpdatedEvent struct {
	Root      string    `json:"root"`
	LeafCount uint64    `json:"leaf_count"`
	Timestamp time.Time `json:"timestamp"`
}

// RelayExecutedEvent is broadcast after a relayed operation commits.
type RelayExecutedEvent struct {
	Kind      string    `json:"kind"` // transfer | unshield
	Signer    string    `json:"signer"`
	Relayer   string    `json:"relayer"`
	Nullifier string    `json:"nullifier"`
	Fee       string    `json:"fee"`
	Nonce     uint64    `json:"nonce"`
	Timestamp time.Time `json:"timestamp"`
}

// ============ Lifecycle ============

// InitNATSServices connects the event publisher. NATS is optional: when not
// configured the publish helpers become no-ops.
func InitNATSServices() error {
	var initErr error
	natsOnce.Do(func() {
		if config.AppConfig == nil || !config.AppConfig.NATS.Enabled || config.AppConfig.NATS.URL == "" {
			log.Println("NATS not configured, skipping initialization")
			return
		}

		client, err := clients.NewNATSClient(config.AppConfig.NATS.URL)
		if err != nil {
			initErr = fmt.Errorf("failed to create NATS client: %w", err)
			return
		}

		natsClient = client
		log.Printf("✅ NATS client initialized successfully")
	})

	return initErr
}

// GetNATSClient returns the shared NATS client, nil when NATS is disabled.
func GetNATSClient() *clients.NATSClient {
	return natsClient
}

// Shutdown drains the NATS connection.
func Shutdown() {
	if natsClient != nil {
		natsClient.Close()
	}
}

// ============ Publish helpers ============

// PublishCommitmentInserted broadcasts a new tree leaf.
func PublishCommitmentInserted(ev *CommitmentInsertedEvent) {
	GetPoolEventHub().Broadcast(SubCommitments, ev)
	if natsClient == nil {
		return
	}
	if err := natsClient.Publish(clients.SubjectCommitmentInserted, ev); err != nil {
		log.Printf("❌ publish commitment event failed: %v", err)
	}
}

// PublishNullifierSpent broadcasts a consumed nullifier.
func PublishNullifierSpent(ev *NullifierSpentEvent) {
	GetPoolEventHub().Broadcast(SubNullifiers, ev)
	if natsClient == nil {
		return
	}
	if err := natsClient.Publish(clients.SubjectNullifierSpent, ev); err != nil {
		log.Printf("❌ publish nullifier event failed: %v", err)
	}
}

// PublishAssetState broadcasts an asset shield-state change.
func PublishAssetState(ev *AssetStateEvent, shielded bool) {
	GetPoolEventHub().Broadcast(SubAssets, ev)
	if natsClient == nil {
		return
	}
	subject := clients.SubjectAssetUnshielded
	if shielded {
		subject = clients.SubjectAssetShielded
	}
	if err := natsClient.Publish(subject, ev); err != nil {
		log.Printf("❌ publish asset event failed: %v", err)
	}
}

// PublishRelayExecuted broadcasts a committed relayed operation.
func PublishRelayExecuted(ev *RelayExecutedEvent) {
	GetPoolEventHub().Broadcast(SubRelays, ev)
	if natsClient == nil {
		return
	}
	if err := natsClient.Publish(clients.SubjectRelayExecuted, ev); err != nil {
		log.Printf("❌ publish relay event failed: %v", err)
	}
}

// PublishRootUpdated broadcasts a new tree root.
func PublishRootUpdated(ev *RootUpdatedEvent) {
	GetPoolEventHub().Broadcast(SubRoots, ev)
	if natsClient == nil {
		return
	}
	if err := natsClient.Publish(clients.SubjectRootUpdated, ev); err != nil {
		log.Printf("❌ publish root event failed: %v", err)
	}
}
