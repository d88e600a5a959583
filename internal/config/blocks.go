package config

// DefaultBlocks returns the default block table. The first entry gets block id
// 1; id 0 is always air and is never listed.
func DefaultBlocks() []BlockDefinition {
	return []BlockDefinition{
		{ID: "grass", Color: "#4C9A2A", Solid: true, Height: 1},
		{ID: "dirt", Color: "#8B5A2B", Solid: true, Height: 1},
		{ID: "sand", Color: "#C2B280", Solid: true, Height: 1},
		{ID: "slate", Color: "#2F4F4F", Solid: true, Height: 1},
		{ID: "sandstone", Color: "#D2B48C", Solid: true, Height: 1},
		{ID: "obsidian", Color: "#341A34", Solid: true, Height: 1},
		{ID: "shale", Color: "#4B3F32", Solid: true, Height: 1},
		{ID: "cobblestone", Color: "#8A8A8A", Solid: true, Height: 1},
		{ID: "coal", Color: "#2B2B2B", Solid: true, Height: 1},
		{ID: "iron", Color: "#B7410E", Solid: true, Height: 1},
		{ID: "copper", Color: "#B87333", Solid: true, Height: 1},
		{ID: "gold", Color: "#FFD700", Solid: true, Height: 1},
		{ID: "snow_layer", Color: "#FFFAFA", Solid: true, Height: 0.125},
		{ID: "slab", Color: "#A9A9A9", Solid: true, Height: 0.5},
		{ID: "tall_grass", Color: "#6B8E23", Solid: false, Height: 1},
		{ID: "water", Color: "#1E90FF", Solid: false, Height: 0.875},
	}
}
