package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var verbose bool
var baseURL *url.URL

// scenario 封装一次端到端巡检过程中共享的资源。
type scenario struct {
	client     *http.Client
	adminToken string
}

func banner(title string) {
	log.Printf("\n=== %s ===", title)
}

func step(format string, args ...interface{}) {
	log.Printf(" • "+format, args...)
}

type userInfo struct {
	UserID uint64 `json:"user_id"`
	Token  string `json:"token"`
}

type itemView struct {
	ItemID  uint64   `json:"item_id"`
	TagIDs  []uint64 `json:"tag_ids"`
	OwnerID uint64   `json:"owner_id"`
	Content string   `json:"content"`
	Price   float64  `json:"price"`
}

func main() {
	var (
		base       string
		adminToken string
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://127.0.0.1:8000", "Base URL of the item service")
	flag.StringVar(&adminToken, "admin-token", "", "Admin token for admin-only checks (optional)")
	flag.DurationVar(&timeout, "timeout", 20*time.Second, "HTTP timeout for requests")
	flag.BoolVar(&verbose, "v", true, "Verbose logging")
	flag.Parse()

	var err error
	baseURL, err = url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		log.Fatalf("parse base url: %v", err)
	}

	sc := &scenario{client: &http.Client{Timeout: timeout}, adminToken: adminToken}
	sc.run()
}

func (s *scenario) run() {
	must := func(err error, msg string) {
		if err != nil {
			log.Fatalf("%s: %v", msg, err)
		}
	}

	log.Printf("E2E start -> %s", baseURL)

	banner("Bootstrap & Health Checks")
	step("Probe /healthz")
	must(s.expectStatus("GET", "/healthz", "", nil, 200, nil), "healthz")
	step("Probe /metrics")
	must(s.expectStatus("GET", "/metrics", "", nil, 200, nil), "metrics")

	banner("Scaffold Users")
	suffix := time.Now().UnixNano()
	var owner, outsider userInfo
	step("Register owner user")
	must(s.expectStatus("POST", fmt.Sprintf("/users?username=e2e_owner_%d", suffix), "", nil, 201, &owner), "create owner")
	step("Register outsider user")
	must(s.expectStatus("POST", fmt.Sprintf("/users?username=e2e_outsider_%d", suffix), "", nil, 201, &outsider), "create outsider")

	banner("Item CRUD & Filtering")
	fixtures := []map[string]interface{}{
		{"tag_ids": []uint64{1, 2, 3}, "content": "Some new product", "price": 5.99},
		{"tag_ids": []uint64{1, 4}, "content": "Some used product", "price": 15.30},
		{"tag_ids": []uint64{2, 4}, "content": "Some free product", "price": 0},
	}
	itemIDs := make([]uint64, 0, len(fixtures))
	for i, f := range fixtures {
		step("Create item #%d", i+1)
		var resp struct {
			ItemID uint64 `json:"item_id"`
		}
		must(s.expectStatus("POST", "/items", owner.Token, f, 201, &resp), "create item")
		itemIDs = append(itemIDs, resp.ItemID)
	}

	step("List items priced under 10 (expect 2 of ours)")
	var cheap []itemView
	must(s.expectStatus("GET", fmt.Sprintf("/items?owner_id=%d&price_less_than=10", owner.UserID), "", nil, 200, &cheap), "list cheap")
	if len(cheap) != 2 {
		log.Fatalf("price filter: want 2 items, got %d", len(cheap))
	}

	step("List items with unknown tag (expect empty)")
	var none []itemView
	must(s.expectStatus("GET", "/items?tag_id=999999999", "", nil, 200, &none), "list unknown tag")
	if len(none) != 0 {
		log.Fatalf("unknown tag filter: want empty list, got %d", len(none))
	}

	step("Get first item, verify tags")
	var got itemView
	must(s.expectStatus("GET", fmt.Sprintf("/items/%d", itemIDs[0]), "", nil, 200, &got), "get item")
	if len(got.TagIDs) != 3 {
		log.Fatalf("get item: want 3 tags, got %v", got.TagIDs)
	}

	step("Patch first item: replace tag set with [2]")
	must(s.expectStatus("PATCH", fmt.Sprintf("/items/%d", itemIDs[0]), owner.Token, map[string]interface{}{"tag_ids": []uint64{2}}, 200, nil), "patch item")
	must(s.expectStatus("GET", fmt.Sprintf("/items/%d", itemIDs[0]), "", nil, 200, &got), "get item after patch")
	if len(got.TagIDs) != 1 || got.TagIDs[0] != 2 {
		log.Fatalf("tag replacement: want [2], got %v", got.TagIDs)
	}

	banner("Authorization")
	step("Outsider cannot delete owner's item (expect 403)")
	must(s.expectStatus("DELETE", fmt.Sprintf("/items/%d", itemIDs[0]), outsider.Token, nil, 403, nil), "forbidden delete")
	step("Missing token is rejected (expect 401)")
	must(s.expectStatus("POST", "/items", "", fixtures[0], 401, nil), "missing token")
	step("Patch of unknown item (expect 404)")
	must(s.expectStatus("PATCH", "/items/99999999", owner.Token, map[string]interface{}{"price": 1.0}, 404, nil), "patch unknown")

	if s.adminToken != "" {
		banner("Admin Checks")
		step("Admin deletes owner's item")
		must(s.expectStatus("DELETE", fmt.Sprintf("/items/%d", itemIDs[0]), s.adminToken, nil, 204, nil), "admin delete")
		itemIDs = itemIDs[1:]
		step("Admin creates another admin")
		var admin2 userInfo
		must(s.expectStatus("POST", fmt.Sprintf("/users/admin?username=e2e_admin_%d", suffix), s.adminToken, nil, 201, &admin2), "create admin")
		step("Cleanup created admin")
		must(s.expectStatus("DELETE", "/users", admin2.Token, nil, 204, nil), "delete admin self")
	} else {
		step("Skipping admin checks (no -admin-token)")
	}

	banner("Cleanup")
	for _, id := range itemIDs {
		step("Delete item %d", id)
		must(s.expectStatus("DELETE", fmt.Sprintf("/items/%d", id), owner.Token, nil, 204, nil), "delete item")
	}
	step("Repeat delete fails with 404")
	if len(itemIDs) > 0 {
		must(s.expectStatus("DELETE", fmt.Sprintf("/items/%d", itemIDs[0]), owner.Token, nil, 404, nil), "double delete")
	}
	step("Delete users")
	must(s.expectStatus("DELETE", "/users", owner.Token, nil, 204, nil), "delete owner")
	must(s.expectStatus("DELETE", "/users", outsider.Token, nil, 204, nil), "delete outsider")

	log.Printf("E2E finished OK")
}

// expectStatus 发起一次请求并断言状态码；out 非 nil 时解析 JSON 响应体。
func (s *scenario) expectStatus(method, path, token string, body interface{}, want int, out interface{}) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, baseURL.String()+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Token", token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	data, _ := io.ReadAll(resp.Body)
	if verbose {
		log.Printf("   %s %s -> %d", method, path, resp.StatusCode)
	}
	if resp.StatusCode != want {
		return fmt.Errorf("%s %s: want %d, got %d (%s)", method, path, want, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}
