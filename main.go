package main

import "github.com/hyejinbaek/cognition-ai-proj/cmd"

func main() {
	cmd.Execute()
}
