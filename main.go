package main

import "github.com/quocvuong92/sgpt/cmd"

func main() {
	cmd.Execute()
}
