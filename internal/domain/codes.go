package domain

import "math/rand"

// AccessCodeLength is the number of digits in a join code.
const AccessCodeLength = 6

// GenerateAccessCode returns a random numeric join code. Uniqueness against
// existing quizzes is the caller's responsibility (retry on collision).
func GenerateAccessCode(rnd *rand.Rand) string {
	digits := make([]byte, AccessCodeLength)
	for i := range digits {
		digits[i] = byte('0' + rnd.Intn(10))
	}
	return string(digits)
}

var sillyAdjectives = []string{
	"Spooky", "Creepy", "Wicked", "Ghostly", "Haunted", "Mysterious",
	"Eerie", "Sinister", "Shadowy", "Cursed", "Frightful", "Moonlit",
	"Twisted", "Dark", "Bony", "Phantom", "Howling",
}

var sillyAnimals = []string{
	"Bat", "Cat", "Crow", "Raven", "Owl", "Spider", "Toad", "Rat",
	"Wolf", "Goblin", "Vampire", "Zombie", "Witch", "Mummy", "Skeleton",
	"Ghost", "Werewolf", "Reaper",
}

// GenerateSillyName suggests a display name for players who join without one.
func GenerateSillyName(rnd *rand.Rand) string {
	return sillyAdjectives[rnd.Intn(len(sillyAdjectives))] + " " + sillyAnimals[rnd.Intn(len(sillyAnimals))]
}
