package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/k1s0-platform/system-server-go-profile/internal/domain/repository"
	"github.com/k1s0-platform/system-server-go-profile/internal/usecase"
)

func newProfilesCmd(withRuntime runtimeRunner) *cobra.Command {
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "Get, create, update and list profiles",
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Output the profile with the given ID as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProfileID(args[0])
			if err != nil {
				return err
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				profile, err := usecase.NewGetProfileUseCase(rt.repo).Execute(ctx, id)
				if err != nil {
					return describeProfileError(id, err)
				}
				return writeJSON(cmd.OutOrStdout(), profile)
			})
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <file.json>",
		Short: "Create a profile from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readProfileInput(args[0])
			if err != nil {
				return err
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				profile, err := usecase.NewCreateProfileUseCase(rt.repo, rt.publisher).Execute(ctx, input)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), profile)
			})
		},
	}

	updateCmd := &cobra.Command{
		Use:   "update <id> <file.json>",
		Short: "Update the profile with the given ID from a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProfileID(args[0])
			if err != nil {
				return err
			}
			input, err := readProfileInput(args[1])
			if err != nil {
				return err
			}
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				profile, err := usecase.NewEditProfileUseCase(rt.repo, rt.publisher).Execute(ctx, id, input)
				if err != nil {
					return describeProfileError(id, err)
				}
				return writeJSON(cmd.OutOrStdout(), profile)
			})
		},
	}

	var page, pageSize int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(ctx context.Context, rt *runtime) error {
				output, err := usecase.NewListProfilesUseCase(rt.repo).Execute(ctx, usecase.ListProfilesInput{
					Page:     page,
					PageSize: pageSize,
				})
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), output.Profiles)
			})
		},
	}
	listCmd.Flags().IntVar(&page, "page", 1, "page number")
	listCmd.Flags().IntVar(&pageSize, "page-size", 20, "profiles per page (max 100)")

	profilesCmd.AddCommand(getCmd, createCmd, updateCmd, listCmd)
	return profilesCmd
}

func parseProfileID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid profile id %q", arg)
	}
	return id, nil
}

func describeProfileError(id int64, err error) error {
	if errors.Is(err, repository.ErrProfileNotFound) {
		return fmt.Errorf("no profile exists with ID %d", id)
	}
	return err
}
