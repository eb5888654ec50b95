package store_test

import (
	"context"
	"fmt"
	"log"

	"github.com/emberhq/firewatch/internal/cache"
	"github.com/emberhq/firewatch/internal/entity"
	"github.com/emberhq/firewatch/internal/remote"
	"github.com/emberhq/firewatch/internal/store"
)

// This example demonstrates the read path: paint whatever the cache
// holds, then refresh from the remote in the background.
// Note: This is for documentation only and won't run as a test.
func ExampleNew() {
	client, err := remote.New(remote.Config{URL: "https://script.example.com/exec"})
	if err != nil {
		log.Fatal(err)
	}

	local, err := cache.Open(cache.Config{Path: ".firewatch/cache.db"})
	if err != nil {
		log.Fatal(err)
	}
	defer local.Close()

	s, err := store.New(store.Config{Remote: client, Cache: local})
	if err != nil {
		log.Fatal(err)
	}
	defer s.Close()

	// Instant paint from cache, possibly stale.
	snap := s.Open()
	fmt.Printf("%d activities on screen\n", len(snap.Activities))

	// Replace with remote truth; cached data survives a failure.
	if err := s.Revalidate(context.Background()); err != nil {
		log.Fatal(err)
	}
}

// This example demonstrates an optimistic write: the record is visible
// immediately and rolled back if the backend rejects it.
func ExampleStore_SaveActivity() {
	var s store.Store // wired as in ExampleNew

	a := entity.Activity{
		ID:    entity.NewID("act"),
		Title: "Firebreak maintenance, north ridge",
		Team:  "A",
	}
	a.SetDefaults()

	if err := s.SaveActivity(context.Background(), a, false); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Activity confirmed by remote")
}
