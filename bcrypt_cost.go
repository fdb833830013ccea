//go:build !race

package storyhub

func passwordHashCost() int {
	return PasswordCost
}
