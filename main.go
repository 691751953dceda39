/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/lric3/recipes/cmd"

func main() {
	cmd.Execute()
}
