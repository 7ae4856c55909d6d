package main

import "github.com/soundphilosopher/basic-grpc-service/internal/cli"

func main() {
	cli.Execute()
}
