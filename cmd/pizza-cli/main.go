package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

var rpcEndpoint = defaultRPCEndpoint() // Defaults to localhost, can be overridden via RPC_URL or --rpc flag

var httpClient = &http.Client{Timeout: 10 * time.Second}

func main() {
	args := os.Args[1:]
	var err error
	rpcEndpoint = defaultRPCEndpoint()
	args, err = applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(args) < 1 {
		printUsage()
		return
	}

	command := args[0]
	switch command {
	case "tip":
		if len(args) < 5 {
			fmt.Println("Error: tip requires <from> <to> <value> <pizzas> [message].")
			printUsage()
			return
		}
		message := ""
		if len(args) > 5 {
			message = strings.Join(args[5:], " ")
		}
		sendTip(args[1], args[2], args[3], args[4], message)
	case "get-tip":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a tip id.")
			printUsage()
			return
		}
		getJSON("/v1/tips/" + args[1])
	case "balance":
		if len(args) < 2 {
			fmt.Println("Error: Please provide an address.")
			printUsage()
			return
		}
		getJSON("/v1/balances/" + args[1])
	case "account":
		if len(args) < 2 {
			fmt.Println("Error: Please provide an address.")
			printUsage()
			return
		}
		getJSON("/v1/accounts/" + args[1])
	case "credit":
		if len(args) < 3 {
			fmt.Println("Error: credit requires <address> <amount>.")
			printUsage()
			return
		}
		postJSON("/v1/accounts/"+args[1]+"/credit", map[string]string{"amount": args[2]})
	case "submitters":
		getJSON("/v1/submitters")
	case "highlighted":
		getJSON("/v1/highlights")
	case "pizza-highlight":
		if len(args) < 2 {
			fmt.Println("Error: Please provide an address.")
			printUsage()
			return
		}
		getJSON("/v1/highlights/pizza/" + args[1])
	case "content-highlight":
		if len(args) < 2 {
			fmt.Println("Error: Please provide an address.")
			printUsage()
			return
		}
		getJSON("/v1/highlights/content/" + args[1])
	case "highlight-content":
		if len(args) < 4 {
			fmt.Println("Error: highlight-content requires <caller> <author> <id>.")
			printUsage()
			return
		}
		highlightContent(args[1], args[2], args[3])
	case "terminate":
		if len(args) < 2 {
			fmt.Println("Error: Please provide the caller address.")
			printUsage()
			return
		}
		postJSON("/v1/terminate", map[string]string{"caller": args[1]})
	case "price":
		if len(args) < 2 {
			fmt.Println("Error: Please provide a pizza id.")
			printUsage()
			return
		}
		getJSON("/v1/oracle/prices/" + args[1])
	case "set-price":
		if len(args) < 5 {
			fmt.Println("Error: set-price requires <caller> <id> <confidence> <price>.")
			printUsage()
			return
		}
		setPrice(args[1], args[2], args[3], args[4])
	case "events":
		path := "/v1/events"
		if len(args) > 1 {
			path += "?limit=" + args[1]
		}
		getJSON(path)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
	}
}

func defaultRPCEndpoint() string {
	if v := strings.TrimSpace(os.Getenv("RPC_URL")); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--rpc" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value for --rpc")
			}
			rpcEndpoint = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--rpc=") {
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		out = append(out, arg)
	}
	return out, nil
}

func sendTip(from, to, value, pizzas, message string) {
	count, err := strconv.ParseUint(pizzas, 10, 32)
	if err != nil {
		fmt.Printf("Error: invalid pizza count %q: %v\n", pizzas, err)
		return
	}
	postJSON("/v1/tips", map[string]any{
		"from":    from,
		"to":      to,
		"value":   value,
		"pizzas":  uint32(count),
		"message": message,
	})
}

func highlightContent(caller, author, id string) {
	contentID, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		fmt.Printf("Error: invalid content id %q: %v\n", id, err)
		return
	}
	postJSON("/v1/highlights/content", map[string]any{
		"caller": caller,
		"author": author,
		"id":     uint32(contentID),
	})
}

func setPrice(caller, id, confidence, price string) {
	conf, err := strconv.ParseUint(confidence, 10, 64)
	if err != nil {
		fmt.Printf("Error: invalid confidence %q: %v\n", confidence, err)
		return
	}
	request(http.MethodPut, "/v1/oracle/prices/"+id, map[string]any{
		"caller":     caller,
		"confidence": conf,
		"price":      price,
	})
}

func getJSON(path string) {
	request(http.MethodGet, path, nil)
}

func postJSON(path string, payload any) {
	request(http.MethodPost, path, payload)
}

func request(method, path string, payload any) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			fmt.Printf("Error: encode request: %v\n", err)
			return
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, rpcEndpoint+path, body)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		fmt.Printf("Error: request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Printf("Error: read response: %v\n", err)
		return
	}
	if resp.StatusCode >= 400 {
		fmt.Printf("Error (%s): %s\n", resp.Status, strings.TrimSpace(string(raw)))
		return
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		fmt.Println("ok")
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(strings.TrimSpace(string(raw)))
		return
	}
	fmt.Println(pretty.String())
}

func printUsage() {
	fmt.Println("Usage: pizza-cli [--rpc <url>] <command> [args]")
	fmt.Println("Commands:")
	fmt.Println("  tip <from> <to> <value> <pizzas> [message]   Submit a tip")
	fmt.Println("  get-tip <id>                                 Fetch a tip record")
	fmt.Println("  balance <address>                            Ledger balance for an address")
	fmt.Println("  account <address>                            Account balance for an address")
	fmt.Println("  credit <address> <amount>                    Fund an account")
	fmt.Println("  submitters                                   List everyone who tipped")
	fmt.Println("  highlighted                                  List highlighted identities")
	fmt.Println("  pizza-highlight <address>                    Highlighted tip for a submitter")
	fmt.Println("  content-highlight <address>                  Highlighted content for an author")
	fmt.Println("  highlight-content <caller> <author> <id>     Promote a content item (operator)")
	fmt.Println("  terminate <caller>                           Terminate the ledger (operator)")
	fmt.Println("  price <id>                                   Published oracle price")
	fmt.Println("  set-price <caller> <id> <confidence> <price> Publish an oracle price (updater)")
	fmt.Println("  events [limit]                               Journaled events")
}
