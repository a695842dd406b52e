package main

import (
	"github.com/chainforge/validator/cmd/validator/cmd"
)

func main() {
	cmd.Execute()
}
