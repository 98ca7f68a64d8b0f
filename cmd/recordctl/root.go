package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nisimpson/dynarec"
	"github.com/nisimpson/dynarec/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Client is the store surface recordctl needs: record operations plus table
// management for create-table.
type Client interface {
	dynarec.DynamoDBClient
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type deps struct {
	loadConfig func(path string) (*config.Config, error)
	newClient  func(ctx context.Context, cfg *config.Config) (Client, error)
	newLogger  func(cfg *config.Config) (*zap.Logger, error)
}

func defaultDeps() deps {
	return deps{
		loadConfig: config.Load,
		newClient: func(ctx context.Context, cfg *config.Config) (Client, error) {
			return config.NewDynamoDBClient(ctx, cfg)
		},
		newLogger: config.NewLogger,
	}
}

// errFailedResponse marks a command whose envelope carried an error status.
// The envelope has already been printed.
var errFailedResponse = errors.New("operation failed")

type session struct {
	cfg     *config.Config
	client  Client
	adapter *dynarec.Adapter
	logger  *zap.Logger
}

func newRootCommand(d deps) *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:          "recordctl",
		Short:        "Create, read, update and delete movie records",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file path")

	open := func(cmd *cobra.Command) (*session, error) {
		cfg, err := d.loadConfig(cfgPath)
		if err != nil {
			return nil, err
		}
		logger, err := d.newLogger(cfg)
		if err != nil {
			return nil, err
		}
		client, err := d.newClient(cmd.Context(), cfg)
		if err != nil {
			return nil, err
		}
		return &session{
			cfg:     cfg,
			client:  client,
			adapter: config.NewAdapter(client, cfg, logger),
			logger:  logger,
		}, nil
	}

	root.AddCommand(
		newCreateCommand(open),
		newGetCommand(open),
		newUpdateCommand(open),
		newDeleteCommand(open),
		newCreateTableCommand(open),
	)
	return root
}

type opener func(cmd *cobra.Command) (*session, error)

func newCreateCommand(open opener) *cobra.Command {
	var req dynarec.CreateRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a record, replacing any record with the same title",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			rec, err := s.adapter.Create(cmd.Context(), req)
			return printResponse(cmd.OutOrStdout(), dynarec.NewResponse(rec, err))
		},
	}
	cmd.Flags().StringVar(&req.Key, "title", "", "record title")
	cmd.Flags().StringVar(&req.Partition, "year", "", "release year")
	cmd.Flags().StringVar(&req.Actors, "actors", "", "actors")
	return cmd
}

func newGetCommand(open opener) *cobra.Command {
	var req dynarec.ReadRequest
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Read a record by title",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			rec, err := s.adapter.Read(cmd.Context(), req)
			return printResponse(cmd.OutOrStdout(), dynarec.NewResponse(rec, err))
		},
	}
	cmd.Flags().StringVar(&req.Key, "title", "", "record title")
	return cmd
}

func newUpdateCommand(open opener) *cobra.Command {
	var (
		req    dynarec.UpdateRequest
		rating string
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Set the rating and plot of an existing record",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			req.Rating = json.Number(rating)
			rec, err := s.adapter.Update(cmd.Context(), req)
			return printResponse(cmd.OutOrStdout(), dynarec.NewResponse(rec, err))
		},
	}
	cmd.Flags().StringVar(&req.Key, "title", "", "record title")
	cmd.Flags().StringVar(&rating, "rating", "", "rating as a decimal, e.g. 4.5")
	cmd.Flags().StringVar(&req.Plot, "plot", "", "plot summary")
	return cmd
}

func newDeleteCommand(open opener) *cobra.Command {
	var req dynarec.DeleteRequest
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a record that has an actors attribute",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			rec, err := s.adapter.Delete(cmd.Context(), req)
			return printResponse(cmd.OutOrStdout(), dynarec.NewResponse(rec, err))
		},
	}
	cmd.Flags().StringVar(&req.Key, "title", "", "record title")
	cmd.Flags().StringVar(&req.Partition, "year", "", "release year (ignored)")
	return cmd
}

func newCreateTableCommand(open opener) *cobra.Command {
	var (
		wait    bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "create-table",
		Short: "Create the configured table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open(cmd)
			if err != nil {
				return err
			}
			table := s.cfg.Table()

			_, err = s.client.CreateTable(cmd.Context(), table.MarshalCreateTable())
			var inUse *types.ResourceInUseException
			switch {
			case errors.As(err, &inUse):
				s.logger.Info("table already exists", zap.String("table", table.TableName))
			case err != nil:
				return fmt.Errorf("failed to create table %s: %w", table.TableName, err)
			default:
				s.logger.Info("table created", zap.String("table", table.TableName))
			}

			if wait {
				waiter := dynamodb.NewTableExistsWaiter(s.client)
				if err := waiter.Wait(cmd.Context(), &dynamodb.DescribeTableInput{TableName: &table.TableName}, timeout); err != nil {
					return fmt.Errorf("table %s did not become active: %w", table.TableName, err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), table.TableName)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", true, "wait for the table to become active")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "maximum time to wait")
	return cmd
}

// printResponse writes the envelope as indented JSON and returns
// errFailedResponse for error statuses, so the process exits non-zero.
func printResponse(w io.Writer, resp dynarec.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w with status %d", errFailedResponse, resp.StatusCode)
	}
	return nil
}
