package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage optimization sessions against a running recommender server",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Args:  cobra.NoArgs,
	Short: "Create a new optimization session",
	RunE:  runSessionCreate,
}

var sessionGetCmd = &cobra.Command{
	Use:   "get [id]",
	Args:  cobra.ExactArgs(1),
	Short: "Get an optimization session's status",
	RunE:  runSessionGet,
}

var sessionStopCmd = &cobra.Command{
	Use:   "stop [id]",
	Args:  cobra.ExactArgs(1),
	Short: "Stop a running optimization session",
	RunE:  runSessionStop,
}

func init() {
	sessionCmd.PersistentFlags().String("server", "http://localhost:8000", "recommender server base URL")

	sessionCreateCmd.Flags().String("service", "", "target service name")
	sessionCreateCmd.Flags().String("search-space", "", "path to a search-space JSON/YAML file")
	sessionCreateCmd.Flags().Int("max-trials", 100, "trial budget")

	sessionCmd.AddCommand(sessionCreateCmd, sessionGetCmd, sessionStopCmd)
}

func runSessionCreate(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	service, _ := cmd.Flags().GetString("service")
	searchSpacePath, _ := cmd.Flags().GetString("search-space")
	maxTrials, _ := cmd.Flags().GetInt("max-trials")

	if service == "" {
		return fmt.Errorf("--service is required")
	}
	if searchSpacePath == "" {
		return fmt.Errorf("--search-space is required")
	}

	spaceConfig, err := os.ReadFile(searchSpacePath)
	if err != nil {
		return fmt.Errorf("failed to read search space file: %w", err)
	}

	body, err := json.Marshal(map[string]interface{}{
		"service_name":        service,
		"search_space_config": json.RawMessage(spaceConfig),
		"max_trials":          maxTrials,
	})
	if err != nil {
		return err
	}

	return postAndPrint(server+"/v1/optimization/sessions", body)
}

func runSessionGet(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	return getAndPrint(server + "/v1/optimization/sessions/" + args[0])
}

func runSessionStop(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	return postAndPrint(server+"/v1/optimization/sessions/"+args[0]+"/stop", []byte("{}"))
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

func postAndPrint(url string, body []byte) error {
	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func getAndPrint(url string) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(pretty.String())
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	return nil
}
