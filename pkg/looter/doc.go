// Package looter tracks looted items and runs the bid and roll auctions
// for them from a game client's text log.
//
// This package allows you to:
//   - Parse log lines and find the catalog items mentioned in chat
//   - Route chat and dice rolls into an auction engine
//   - Follow a live log and receive the engine's events as they happen
//
// # Basic Usage
//
// Load a catalog, build an engine and follow the log:
//
//	items, err := looter.LoadCatalog("items.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	x, err := looter.NewExtractor(items)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine := looter.NewEngine(looter.WithCatalog(items))
//	proc := looter.NewProcessor(engine, x)
//
//	events, errs, err := looter.Watch(ctx, "eqlog_Jim_P1999Green.txt", proc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for {
//	    select {
//	    case ev, ok := <-events:
//	        if !ok {
//	            return
//	        }
//	        switch ev.Type {
//	        case looter.EventOccurrenceDetected:
//	            fmt.Printf("%s reported %s\n", ev.Reporter, ev.ItemName)
//	        case looter.EventAuctionStarted:
//	            fmt.Println(ev.Text)
//	        }
//	    case err, ok := <-errs:
//	        if !ok {
//	            return
//	        }
//	        log.Printf("error: %v", err)
//	    }
//	}
//
// Auctions are started and resolved through the engine, usually by a
// person at the keyboard; the log only supplies the items, bids and rolls.
//
// To scan an existing log for item mentions:
//
//	for m, err := range looter.ScanFile(ctx, path, x, items) {
//	    if err != nil {
//	        break
//	    }
//	    fmt.Println(m.Item)
//	}
package looter
