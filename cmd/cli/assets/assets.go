package assets

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/complium/asset-inventory/cmd/cli/config"
	"github.com/complium/asset-inventory/cmd/cli/output"
	"github.com/complium/asset-inventory/internal/models"
)

// ==========================
// Init Assets
// ==========================
func InitAssets(rootCmd *cobra.Command) {

	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Manage inventory assets",
	}

	assetsCmd.AddCommand(
		listAssetsCmd(),
		getAssetCmd(),
		createAssetCmd(),
		deleteAssetsCmd(),
		importAssetsCmd(),
		statsCmd(),
	)

	rootCmd.AddCommand(assetsCmd)
}

// ==========================
// LIST
// ==========================
func listAssetsCmd() *cobra.Command {
	var (
		search        string
		criticalities string
		types         string
		tags          string
		sortKey       string
		sortDir       string
		page          int
		pageSize      int
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assets in the current view",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			params.Set("org", config.Org())
			if search != "" {
				params.Set("search", search)
			}
			if criticalities != "" {
				params.Set("criticalities", criticalities)
			}
			if types != "" {
				params.Set("types", types)
			}
			if tags != "" {
				params.Set("tags", tags)
			}
			if sortKey != "" {
				params.Set("sort", sortKey)
				params.Set("dir", sortDir)
			}
			if page > 0 {
				params.Set("page", strconv.Itoa(page))
			}
			if pageSize > 0 {
				params.Set("pageSize", strconv.Itoa(pageSize))
			}

			var out struct {
				Data     []models.Asset `json:"data"`
				Page     int            `json:"page"`
				Filtered int            `json:"filtered"`
				Total    int            `json:"total"`
			}
			if err := apiGet("/assets?"+params.Encode(), &out); err != nil {
				return err
			}

			if asJSON {
				b, _ := json.MarshalIndent(out.Data, "", "  ")
				fmt.Println(string(b))
				return nil
			}

			rows := make([][]interface{}, 0, len(out.Data))
			for _, a := range out.Data {
				rows = append(rows, []interface{}{
					a.ID, a.Name, a.Type, a.Owner, a.Criticality,
					fmt.Sprintf("%.1f", a.RiskScore), strings.Join(a.Tags, ","),
				})
			}
			output.RenderTable(
				[]string{"ID", "Name", "Type", "Owner", "Criticality", "Risk", "Tags"},
				rows,
			)
			fmt.Printf("page %d, showing %d of %d matching (%d total)\n",
				out.Page, len(out.Data), out.Filtered, out.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "free-text search")
	cmd.Flags().StringVar(&criticalities, "criticality", "", "comma-separated criticalities")
	cmd.Flags().StringVar(&types, "type", "", "comma-separated asset types")
	cmd.Flags().StringVar(&tags, "tag", "", "comma-separated tags")
	cmd.Flags().StringVar(&sortKey, "sort", "", "sort key (name, riskScore, createdAt, ...)")
	cmd.Flags().StringVar(&sortDir, "dir", "asc", "sort direction (asc|desc)")
	cmd.Flags().IntVar(&page, "page", 0, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "page size")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON instead of a table")

	return cmd
}

// ==========================
// GET
// ==========================
func getAssetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one asset with relationships and vulnerabilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var asset models.Asset
			if err := apiGet("/assets/"+url.PathEscape(args[0])+"?org="+url.QueryEscape(config.Org()), &asset); err != nil {
				return err
			}
			b, _ := json.MarshalIndent(asset, "", "  ")
			fmt.Println(string(b))
			return nil
		},
	}
}

// ==========================
// CREATE
// ==========================
func createAssetCmd() *cobra.Command {
	var draft models.AssetDraft
	var tags string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an asset",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tags != "" {
				draft.Tags = strings.Split(tags, ",")
			}
			var created models.Asset
			if err := apiPost("/assets?org="+url.QueryEscape(config.Org()), draft, &created); err != nil {
				return err
			}
			fmt.Printf("created asset %s (%s)\n", created.Name, created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&draft.Name, "name", "", "asset name (required)")
	cmd.Flags().StringVar(&draft.Type, "type", "", "asset type (required)")
	cmd.Flags().StringVar(&draft.Owner, "owner", "", "asset owner (required)")
	cmd.Flags().StringVar(&draft.Description, "description", "", "description")
	cmd.Flags().StringVar(&draft.Criticality, "criticality", "", "criticality (critical|high|medium|low)")
	cmd.Flags().Float64Var(&draft.RiskScore, "risk-score", 0, "risk score 0-100")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")

	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteAssetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id> [id...]",
		Short: "Delete one or more assets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string][]string{"ids": args}
			if err := apiDelete("/assets?org="+url.QueryEscape(config.Org()), payload); err != nil {
				return err
			}
			fmt.Printf("deleted %d asset(s)\n", len(args))
			return nil
		},
	}
}

// ==========================
// IMPORT
// ==========================
func importAssetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Bulk-import assets from a JSON array of drafts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var drafts []models.AssetDraft
			if err := json.Unmarshal(data, &drafts); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			var rep struct {
				Created  int      `json:"created"`
				Rejected int      `json:"rejected"`
				Failed   int      `json:"failed"`
				Errors   []string `json:"errors"`
			}
			if err := apiPost("/assets/import?org="+url.QueryEscape(config.Org()), drafts, &rep); err != nil {
				return err
			}

			fmt.Printf("import finished: %d created, %d rejected, %d failed\n",
				rep.Created, rep.Rejected, rep.Failed)
			for _, e := range rep.Errors {
				fmt.Println("  -", e)
			}
			return nil
		},
	}
}

// ==========================
// STATS
// ==========================
func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show inventory statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stats struct {
				Total         int            `json:"total"`
				Critical      int            `json:"critical"`
				Untagged      int            `json:"untagged"`
				RecentlyAdded int            `json:"recentlyAdded"`
				ByCriticality map[string]int `json:"byCriticality"`
			}
			if err := apiGet("/assets/stats?org="+url.QueryEscape(config.Org()), &stats); err != nil {
				return err
			}

			rows := [][]interface{}{
				{"total", stats.Total},
				{"critical", stats.Critical},
				{"untagged", stats.Untagged},
				{"recently added", stats.RecentlyAdded},
			}
			for name, n := range stats.ByCriticality {
				rows = append(rows, []interface{}{"criticality: " + name, n})
			}
			output.RenderTable([]string{"Metric", "Count"}, rows)
			return nil
		},
	}
}

// ==========================
// HTTP helpers
// ==========================
func apiGet(path string, out interface{}) error {
	return apiCall("GET", path, nil, out)
}

func apiPost(path string, payload, out interface{}) error {
	return apiCall("POST", path, payload, out)
}

func apiDelete(path string, payload interface{}) error {
	return apiCall("DELETE", path, payload, nil)
}

func apiCall(method, path string, payload, out interface{}) error {
	token, err := config.LoadToken()
	if err != nil {
		return fmt.Errorf("please login first (inv login --username <name>)")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return err
		}
	}
	return nil
}
