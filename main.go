/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/studentrecords/apiserver/cmd"

func main() {
	cmd.Execute()
}
