package event

// Events carry player identities (the wire-level id), not entity ids.

type PlayerJoined struct {
	PlayerID  uint32
	SessionID uint64
}

type PlayerLeft struct {
	PlayerID  uint32
	SessionID uint64
}

type PlayerHit struct {
	AttackerID uint32
	TargetID   uint32
	HP         int
}

type PlayerDied struct {
	PlayerID   uint32
	AttackerID uint32
}

type PlayerRespawned struct {
	PlayerID uint32
}
