package main

import "github.com/mnbizdata/filings-crawler/cmd"

func main() {
	cmd.Execute()
}
