package dynarec

import (
	"context"

	"go.uber.org/zap"
)

// Operation names used in errors, logs and boundary routing.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Options configures an Adapter.
type Options struct {
	Validation ValidationMode // How empty keys are treated. Default is Strict.
	Logger     *zap.Logger    // Logger for store calls. Default is a no-op logger.
}

// WithValidation sets the validation mode.
func WithValidation(mode ValidationMode) func(*Options) {
	return func(o *Options) {
		o.Validation = mode
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Adapter performs create, read, update and delete operations against a
// single-key record table. It holds no mutable state and is safe for
// concurrent use. Each operation is a single store round trip and is never
// retried by the adapter.
type Adapter struct {
	client  DynamoDBClient
	table   *Table
	options Options
}

// New creates an Adapter over client for table.
func New(client DynamoDBClient, table *Table, opts ...func(*Options)) *Adapter {
	options := Options{Validation: Strict}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	return &Adapter{
		client:  client,
		table:   table,
		options: options,
	}
}

// Table returns the table configuration used by the adapter.
func (a *Adapter) Table() *Table {
	return a.table
}

// Create writes the full record at req.Key, overwriting any existing record.
// The record as written is returned.
func (a *Adapter) Create(ctx context.Context, req CreateRequest) (Record, error) {
	if err := validateRequest(req, a.options.Validation == Lenient); err != nil {
		return nil, validationError(OpCreate, req.Key, err)
	}

	input, err := a.table.MarshalPut(req)
	if err != nil {
		return nil, validationError(OpCreate, req.Key, err)
	}

	a.options.Logger.Debug("put item",
		zap.String("table", a.table.TableName),
		zap.String("key", req.Key),
	)

	if _, err := a.client.PutItem(ctx, input); err != nil {
		return nil, a.fault(OpCreate, req.Key, err)
	}

	return a.decode(OpCreate, req.Key, input.Item)
}

// Read returns the record stored at req.Key, or an error of kind NotFound.
func (a *Adapter) Read(ctx context.Context, req ReadRequest) (Record, error) {
	if err := validateRequest(req, false); err != nil {
		return nil, validationError(OpRead, req.Key, err)
	}

	input, err := a.table.MarshalGet(req.Key)
	if err != nil {
		return nil, validationError(OpRead, req.Key, err)
	}

	a.options.Logger.Debug("get item",
		zap.String("table", a.table.TableName),
		zap.String("key", req.Key),
	)

	output, err := a.client.GetItem(ctx, input)
	if err != nil {
		return nil, a.fault(OpRead, req.Key, err)
	}

	if len(output.Item) == 0 {
		return nil, &Error{Op: OpRead, Key: req.Key, Kind: KindNotFound, Err: ErrNotFound}
	}

	return a.decode(OpRead, req.Key, output.Item)
}

// Update sets the rating and plot of the record at req.Key. Only the newly
// set values are returned. Updating a missing record fails with NotFound.
func (a *Adapter) Update(ctx context.Context, req UpdateRequest) (Record, error) {
	if err := validateRequest(req, a.options.Validation == Lenient); err != nil {
		return nil, validationError(OpUpdate, req.Key, err)
	}

	rating, err := ParseRating(orDefault(req.Rating.String(), DefaultRating))
	if err != nil {
		return nil, validationError(OpUpdate, req.Key, err)
	}

	input, err := a.table.MarshalUpdate(req.Key, rating, req.Plot)
	if err != nil {
		return nil, validationError(OpUpdate, req.Key, err)
	}

	a.options.Logger.Debug("update item",
		zap.String("table", a.table.TableName),
		zap.String("key", req.Key),
		zap.Stringer("rating", rating),
	)

	output, err := a.client.UpdateItem(ctx, input)
	if err != nil {
		return nil, a.fault(OpUpdate, req.Key, err)
	}

	return a.decode(OpUpdate, req.Key, output.Attributes)
}

// Delete removes the record at req.Key if its nested actors attribute exists,
// returning the record as it was before the delete. req.Partition is not
// used.
func (a *Adapter) Delete(ctx context.Context, req DeleteRequest) (Record, error) {
	if err := validateRequest(req, false); err != nil {
		return nil, validationError(OpDelete, req.Key, err)
	}

	input, err := a.table.MarshalDelete(req.Key)
	if err != nil {
		return nil, validationError(OpDelete, req.Key, err)
	}

	a.options.Logger.Debug("delete item",
		zap.String("table", a.table.TableName),
		zap.String("key", req.Key),
		zap.Bool("partition_ignored", req.Partition != ""),
	)

	output, err := a.client.DeleteItem(ctx, input)
	if err != nil {
		return nil, a.fault(OpDelete, req.Key, err)
	}

	return a.decode(OpDelete, req.Key, output.Attributes)
}

func (a *Adapter) decode(op, key string, item Item) (Record, error) {
	rec, err := UnmarshalRecord(item)
	if err != nil {
		return nil, &Error{Op: op, Key: key, Kind: KindStoreFault, Err: err}
	}
	return rec, nil
}

func (a *Adapter) fault(op, key string, err error) error {
	e := classify(op, key, err)

	if e.Kind == KindStoreFault {
		a.options.Logger.Warn("store fault",
			zap.String("op", op),
			zap.String("table", a.table.TableName),
			zap.String("key", key),
			zap.String("code", e.Code),
			zap.Bool("retryable", IsRetryable(err)),
			zap.Error(err),
		)
	} else {
		a.options.Logger.Debug("store rejected request",
			zap.String("op", op),
			zap.String("key", key),
			zap.String("kind", string(e.Kind)),
		)
	}

	return e
}
