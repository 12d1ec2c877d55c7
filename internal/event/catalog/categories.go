package catalog

// Built-in categories.
const (
	// Gameplay covers player, enemy and level progression events.
	Gameplay Category = "gameplay"

	// Options covers the option manager: menus and user settings.
	Options Category = "options"

	// System covers host lifecycle events published by the scene.
	System Category = "system"

	// CustomCategory holds user-defined kinds created with Custom.
	CustomCategory Category = "custom"
)

// Gameplay kinds.
var (
	PlayerDamaged     = Gameplay.Kind("player_damaged")
	PlayerHealed      = Gameplay.Kind("player_healed")
	PlayerDied        = Gameplay.Kind("player_died")
	PlayerRespawned   = Gameplay.Kind("player_respawned")
	EnemySpawned      = Gameplay.Kind("enemy_spawned")
	EnemyKilled       = Gameplay.Kind("enemy_killed")
	ItemPicked        = Gameplay.Kind("item_picked")
	CheckpointReached = Gameplay.Kind("checkpoint_reached")
	LevelCompleted    = Gameplay.Kind("level_completed")
	AbilityUsed       = Gameplay.Kind("ability_used")
	AbilityReady      = Gameplay.Kind("ability_ready")
)

// Option manager kinds.
var (
	OptionsOpened     = Options.Kind("opened")
	OptionsClosed     = Options.Kind("closed")
	VolumeChanged     = Options.Kind("volume_changed")
	ResolutionChanged = Options.Kind("resolution_changed")
	FullscreenToggled = Options.Kind("fullscreen_toggled")
	CursorLockChanged = Options.Kind("cursor_lock_changed")
	QualityChanged    = Options.Kind("quality_changed")
)

// System kinds.
var (
	SceneLoaded    = System.Kind("scene_loaded")
	SceneUnloading = System.Kind("scene_unloading")
	ConfigReloaded = System.Kind("config_reloaded")
	Tick           = System.Kind("tick")
)

// Custom declares a user-defined kind in the custom category.
func Custom(name string) Kind {
	return CustomCategory.Kind(name)
}
