package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joshrakosky/fmg-pick/internal/handlers"
	"github.com/joshrakosky/fmg-pick/internal/orderstore"
	"github.com/joshrakosky/fmg-pick/internal/storage"
	"github.com/joshrakosky/fmg-pick/internal/storage/bboltslot"
	"github.com/joshrakosky/fmg-pick/internal/storage/sqliteslot"
	"github.com/joshrakosky/fmg-pick/internal/users"
)

func main() {
	addUserCmd := flag.NewFlagSet("add-user", flag.ExitOnError)
	username := addUserCmd.String("username", "", "Username for the new operator")
	password := addUserCmd.String("password", "", "Password for the new operator")

	if len(os.Args) < 2 {
		fmt.Println("expected 'add-user', 'seed', 'clear' or 'list' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add-user":
		addUserCmd.Parse(os.Args[2:])
		if *username == "" || *password == "" {
			fmt.Println("username and password are required")
			addUserCmd.PrintDefaults()
			os.Exit(1)
		}
		createUser(*username, *password)
	case "seed":
		seedOrders()
	case "clear":
		clearOrders()
	case "list":
		listOrders()
	default:
		fmt.Println("expected 'add-user', 'seed', 'clear' or 'list' subcommand")
		os.Exit(1)
	}
}

func openSlot() storage.Slot {
	path := os.Getenv("DATA_PATH")
	if path == "" {
		path = "./fmg-pick.db"
	}

	var slot storage.Slot
	var err error
	if os.Getenv("STORE_DRIVER") == "sqlite" {
		slot, err = sqliteslot.Open(path)
	} else {
		slot, err = bboltslot.Open(path)
	}
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	return slot
}

func createUser(username, password string) {
	slot := openSlot()
	defer slot.Close()

	if err := users.NewStore(slot).Create(username, password); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("Operator '%s' created successfully.\n", username)
}

func openStore(slot storage.Slot) *orderstore.Store {
	store, err := orderstore.New(slot, nil, nil)
	if err != nil {
		log.Fatalf("Failed to open order store: %v", err)
	}
	return store
}

func seedOrders() {
	slot := openSlot()
	defer slot.Close()

	store := openStore(slot)
	defer store.Close()

	if err := store.SetOrders(handlers.SampleOrders()); err != nil {
		log.Fatalf("Failed to seed orders: %v", err)
	}
	fmt.Println("Test orders loaded.")
}

func clearOrders() {
	slot := openSlot()
	defer slot.Close()

	store := openStore(slot)
	defer store.Close()

	if err := store.SetOrders(nil); err != nil {
		log.Fatalf("Failed to clear orders: %v", err)
	}
	if err := slot.Delete(storage.OrdersKey); err != nil {
		log.Fatalf("Failed to delete orders key: %v", err)
	}
	fmt.Println("All orders cleared.")
}

func listOrders() {
	slot := openSlot()
	defer slot.Close()

	store := openStore(slot)
	defer store.Close()

	orders := store.Orders()
	if len(orders) == 0 {
		fmt.Println("No orders.")
		return
	}
	for _, o := range orders {
		fmt.Printf("%-12s %-12s %-24s %d items\n", o.OrderID, o.Status, o.Customer.Name, len(o.Items))
	}
}
