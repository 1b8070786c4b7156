package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/k1s0-platform/system-server-go-profile/internal/usecase"
)

const (
	defaultRandomUserURL  = "https://randomuser.me/api/"
	defaultGenerateCount  = 5
	randomUserNationality = "NZ"
)

// randomUserResponse は Random User Generator API のレスポンス。
// https://randomuser.me/documentation#results
type randomUserResponse struct {
	Error   string           `json:"error"`
	Results []randomUserData `json:"results"`
}

type randomUserData struct {
	Gender string `json:"gender"`
	Email  string `json:"email"`
	Name   struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Location struct {
		Street struct {
			Number int    `json:"number"`
			Name   string `json:"name"`
		} `json:"street"`
	} `json:"location"`
	Login struct {
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"login"`
}

// toProfileInput は入れ子のレスポンスを平坦なプロフィール入力に変換する。
func (d randomUserData) toProfileInput() usecase.EditProfileInput {
	return usecase.EditProfileInput{
		Username:      d.Login.Username,
		Password:      d.Login.Password,
		Gender:        d.Gender,
		FullName:      d.Name.First + " " + d.Name.Last,
		StreetAddress: strconv.Itoa(d.Location.Street.Number) + " " + d.Location.Street.Name,
		Email:         d.Email,
	}
}

func newGenerateCmd(withRuntime runtimeRunner, randomUserURL string) *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample data",
	}

	profilesCmd := &cobra.Command{
		Use:   "profiles [count]",
		Short: "Generate profiles with the Random User Generator API and add them to the database",
		Long: `Generate profiles with the Random User Generator API (https://randomuser.me/)
and add them to the database. Existing profiles are not removed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := defaultGenerateCount
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid count %q", args[0])
				}
				count = n
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				out := cmd.ErrOrStderr()
				fmt.Fprintf(out, "Loading %d profiles...\n", count)

				inputs, err := fetchRandomProfiles(ctx, http.DefaultClient, randomUserURL, count)
				if err != nil {
					return err
				}

				createUC := usecase.NewCreateProfileUseCase(rt.repo, rt.publisher)
				for _, input := range inputs {
					profile, err := createUC.Execute(ctx, input)
					if err != nil {
						return fmt.Errorf("failed to save profile %s: %w", input.Username, err)
					}
					fmt.Fprintf(out, "Welcome %s!\n", profile.FullName)
				}
				fmt.Fprintln(out, "Done!")
				return nil
			})
		},
	}

	generateCmd.AddCommand(profilesCmd)
	return generateCmd
}

// fetchRandomProfiles は Random User Generator API から count 件のプロフィールを取得する。
func fetchRandomProfiles(ctx context.Context, client *http.Client, baseURL string, count int) ([]usecase.EditProfileInput, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid random user url: %w", err)
	}
	q := u.Query()
	q.Set("nat", randomUserNationality)
	q.Set("results", strconv.Itoa(count))
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch random users: %w", err)
	}
	defer resp.Body.Close()

	var body randomUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode random users (status %d): %w", resp.StatusCode, err)
	}
	// https://randomuser.me/documentation#errors
	if body.Error != "" {
		return nil, errors.New(body.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("random user api returned status %d", resp.StatusCode)
	}

	inputs := make([]usecase.EditProfileInput, 0, len(body.Results))
	for _, r := range body.Results {
		inputs = append(inputs, r.toProfileInput())
	}
	return inputs, nil
}
