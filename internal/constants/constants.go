package constants

const (
	RoomStatusWaiting    = "waiting"
	RoomStatusInProgress = "in_progress"
	RoomStatusCompleted  = "completed"
)

const (
	ProfileClassic = "classic"
	ProfileHard    = "hard"
)

const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
)

const (
	MinRoomPlayers = 2
	MaxRoomPlayers = 8
	RoomCodeLength = 6
	RoomCodeChars  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

const (
	QueueEvents        = "bingo.events"
	QueueInbound       = "bingo.inbound"
	QueueNotifications = "notifications.create"
)
