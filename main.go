package main

import "github.com/frahmantamala/budget-analytics/cmd"

func main() {
	cmd.Execute()
}
