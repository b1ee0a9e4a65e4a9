// Command shelfctl is the moneyshelf admin CLI.
package main

func main() {
	Execute()
}
