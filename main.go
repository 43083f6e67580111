package main

import "github.com/expenseops/expense-approval/cmd"

func main() {
	cmd.Execute()
}
