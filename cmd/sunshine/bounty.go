package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var bountyMin string

func bountyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bounty",
		Short: "Post, fund and review bounties",
	}

	postCmd := &cobra.Command{
		Use:   "post <repo-owner> <repo-name> <issue-number> <amount>",
		Short: "Post a bounty on a github issue",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			issue, err := parseIssueNumber(args[2])
			if err != nil {
				return err
			}

			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()
			if err := unlock(bridge); err != nil {
				return err
			}

			id, err := bridge.Bounty.Post(cmd.Context(), args[0], args[1], issue, args[3])
			if err != nil {
				return err
			}
			fmt.Printf("posted bounty %s\n", id)
			return nil
		},
	}

	contributeCmd := &cobra.Command{
		Use:   "contribute <bounty-id> <amount>",
		Short: "Add funds to a bounty",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()
			if err := unlock(bridge); err != nil {
				return err
			}

			total, err := bridge.Bounty.Contribute(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("bounty %s total is now %s\n", args[0], total)
			return nil
		},
	}

	submitCmd := &cobra.Command{
		Use:   "submit <bounty-id> <repo-owner> <repo-name> <issue-number> <amount>",
		Short: "Submit work on a bounty for review",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			issue, err := parseIssueNumber(args[3])
			if err != nil {
				return err
			}

			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()
			if err := unlock(bridge); err != nil {
				return err
			}

			subID, err := bridge.Bounty.Submit(cmd.Context(), args[0], args[1], args[2], issue, args[4])
			if err != nil {
				return err
			}
			fmt.Printf("submitted for bounty %s as submission %s\n", args[0], subID)
			return nil
		},
	}

	approveCmd := &cobra.Command{
		Use:   "approve <submission-id>",
		Short: "Approve a submission and pay it out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()
			if err := unlock(bridge); err != nil {
				return err
			}

			total, err := bridge.Bounty.Approve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("submission %s approved, bounty total is now %s\n", args[0], total)
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <bounty-id>",
		Short: "Show one bounty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()

			info, err := bridge.Bounty.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(info)
			return nil
		},
	}

	submissionCmd := &cobra.Command{
		Use:   "submission <submission-id>",
		Short: "Show one submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()

			info, err := bridge.Bounty.GetSubmission(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(info)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List open bounties",
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()

			open, err := bridge.Bounty.OpenBounties(cmd.Context(), bountyMin)
			if err != nil {
				return err
			}
			if open == "" {
				fmt.Println("no open bounties")
				return nil
			}
			fmt.Println(open)
			return nil
		},
	}
	listCmd.Flags().StringVar(&bountyMin, "min", "1", "only list bounties with at least this total")

	submissionsCmd := &cobra.Command{
		Use:   "submissions <bounty-id>",
		Short: "List a bounty's submissions awaiting review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()

			open, err := bridge.Bounty.OpenBountySubmissions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if open == "" {
				fmt.Println("no submissions awaiting review")
				return nil
			}
			fmt.Println(open)
			return nil
		},
	}

	contributionsCmd := &cobra.Command{
		Use:   "contributions <bounty-id>",
		Short: "List every contribution to a bounty",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()

			contributions, err := bridge.Bounty.BountyContributions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if contributions == "" {
				fmt.Println("no contributions")
				return nil
			}
			fmt.Println(contributions)
			return nil
		},
	}

	contributionCmd := &cobra.Command{
		Use:   "contribution <bounty-id> [account]",
		Short: "Show one contribution (account defaults to the device key)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()

			account := ""
			if len(args) == 2 {
				account = args[1]
			}
			contribution, err := bridge.Bounty.GetContribution(cmd.Context(), args[0], account)
			if err != nil {
				return err
			}
			fmt.Println(contribution)
			return nil
		},
	}

	myContributionsCmd := &cobra.Command{
		Use:   "my-contributions [account]",
		Short: "List contributions by an account (defaults to the device key)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bridge, err := newBridge(cmd.Context())
			if err != nil {
				return err
			}
			defer bridge.Close()

			account := ""
			if len(args) == 1 {
				account = args[0]
			}
			contributions, err := bridge.Bounty.AccountContributions(cmd.Context(), account)
			if err != nil {
				return err
			}
			if contributions == "" {
				fmt.Println("no contributions")
				return nil
			}
			fmt.Println(contributions)
			return nil
		},
	}

	cmd.AddCommand(postCmd, contributeCmd, submitCmd, approveCmd, getCmd,
		submissionCmd, listCmd, submissionsCmd, contributionCmd, contributionsCmd,
		myContributionsCmd)
	return cmd
}

func parseIssueNumber(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad issue number %q: %w", s, err)
	}
	return v, nil
}
