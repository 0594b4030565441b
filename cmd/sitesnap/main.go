package main

import "github.com/empathyhealth/sitesnap/cmd"

func main() {
	cmd.Execute()
}
