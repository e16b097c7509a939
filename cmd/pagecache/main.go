package main

import (
	"context"
	"fmt"
	"os"

	mylog "github.com/krisalay/page-cache/internal/log"
)

func main() {
	os.Exit(realMain(context.Background(), os.Args))
}

func realMain(ctx context.Context, args []string) int {
	mylog.InitLogger("")

	if err := NewApp().Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
