/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package cards

var builtins = []Pack{
	{
		ID:          "animals",
		Name:        "Animals",
		Description: "Creatures great and small",
		Icon:        "🐘",
		Cards: FromTexts(
			"Dog", "Cat", "Elephant", "Giraffe", "Penguin", "Kangaroo",
			"Octopus", "Dolphin", "Owl", "Crocodile", "Sloth", "Flamingo",
			"Hedgehog", "Koala", "Shark", "Zebra", "Camel", "Bat",
			"Peacock", "Chameleon", "Squirrel", "Panda", "Jellyfish", "Moose",
		),
	},
	{
		ID:          "food",
		Name:        "Food",
		Description: "Things you can eat",
		Icon:        "🍕",
		Cards: FromTexts(
			"Pizza", "Sushi", "Spaghetti", "Pancakes", "Taco", "Croissant",
			"Popcorn", "Cheeseburger", "Ice Cream", "Dumplings", "Avocado",
			"Chocolate", "Waffles", "Hot Dog", "Lasagna", "Pretzel",
			"Watermelon", "Fondue", "Burrito", "Cupcake", "Ramen", "Omelette",
		),
	},
	{
		ID:          "actions",
		Name:        "Actions",
		Description: "Act it out, no words allowed",
		Icon:        "🤸",
		Cards: FromTexts(
			"Swimming", "Juggling", "Brushing Teeth", "Skydiving", "Knitting",
			"Surfing", "Sneezing", "Climbing a Ladder", "Walking a Dog",
			"Playing Guitar", "Ice Skating", "Taking a Selfie", "Changing a Tire",
			"Baking a Cake", "Sleepwalking", "Riding a Horse", "Fishing",
			"Painting a Wall", "Shoveling Snow", "Yoga",
		),
	},
	{
		ID:          "places",
		Name:        "Places",
		Description: "Landmarks, buildings and far-off lands",
		Icon:        "🗺️",
		Cards: FromTexts(
			"Eiffel Tower", "Beach", "Library", "Hospital", "Airport",
			"Great Wall of China", "Desert", "Volcano", "Supermarket",
			"Space Station", "Haunted House", "Zoo", "Pyramids", "Igloo",
			"Lighthouse", "Casino", "Rainforest", "Submarine", "Castle", "Sun",
		),
	},
}

// Builtins returns copies of the packs that ship with the game.
func Builtins() []Pack {
	out := make([]Pack, len(builtins))
	for i, p := range builtins {
		out[i] = p.Clone()
	}
	return out
}

// IsBuiltin reports whether id names a built-in pack.
func IsBuiltin(id string) bool {
	for _, p := range builtins {
		if p.ID == id {
			return true
		}
	}
	return false
}
