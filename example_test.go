package pgtrigger

import (
	"context"
	"fmt"
	"strings"

	"github.com/kataras/pgtrigger/catalog"
)

const exampleCatalog = `
tables:
  customers:
    columns:
      id: bigint
      email: text
  audit_log:
    columns:
      entry: text
triggers:
  - name: audit_new_customer
    table: customers
    event: insert
    for_each: row
    statements:
      audit:
        sql: INSERT INTO audit_log(entry) VALUES('customer inserted');
        fragments:
          main: {id: 10}
`

// getTestConnString returns a connection string for connecting to a test database.
// It uses constants to define the host, port, user, password, schema, dbname, and sslmode parameters.
func getTestConnString() string {
	const (
		host     = "localhost" // The host name or IP address of the database server.
		port     = 5432        // The port number of the database server.
		user     = "postgres"  // The user name to connect to the database with.
		password = "admin!123" // The password to connect to the database with.
		schema   = "public"    // The schema name to use in the database.
		dbname   = "test_db"   // The database name to connect to.
		sslMode  = "disable"   // The SSL mode to use for the connection. Can be disable, require, verify-ca or verify-full.
	)

	return fmt.Sprintf("host=%s port=%d user=%s password=%s search_path=%s dbname=%s sslmode=%s",
		host, port, user, password, schema, dbname, sslMode)
}

func openTestConnection() (*DB, error) {
	cat, err := catalog.Load(strings.NewReader(exampleCatalog))
	if err != nil {
		return nil, err
	}

	db, err := Open(context.Background(), NewRegistry(cat), getTestConnString())
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(context.Background(), `
	CREATE TABLE IF NOT EXISTS customers (id bigserial PRIMARY KEY, email text NOT NULL);
	CREATE TABLE IF NOT EXISTS audit_log (entry text NOT NULL);`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func handleExampleError(err error) {
	if err != nil {
		fmt.Println(err.Error())
	}
}

// ExampleDB_Fire fires the INSERT triggers of the customers table
// in the same transaction as the insert itself.
func ExampleDB_Fire() {
	db, err := openTestConnection()
	if err != nil {
		handleExampleError(err)
		return
	}
	defer db.Close()

	err = db.InTransaction(context.Background(), func(db *DB) error {
		_, err := db.Exec(context.Background(), `INSERT INTO customers(email) VALUES('kataras2006@hotmail.com');`)
		if err != nil {
			return err
		}

		return db.Fire(context.Background(), "customers", catalog.EventInsert, true)
	})
	if err != nil {
		handleExampleError(err)
		return
	}

	fmt.Println("OK")
}

// ExampleDefinition_Fire fires a single trigger definition through an explicit transaction.
func ExampleDefinition_Fire() {
	db, err := openTestConnection()
	if err != nil {
		handleExampleError(err)
		return
	}
	defer db.Close()

	tx, err := db.Begin(context.Background())
	if err != nil {
		handleExampleError(err)
		return
	}
	defer tx.Rollback(context.Background())

	d, ok := tx.Snapshot().Definition("audit_new_customer")
	if !ok {
		fmt.Println("trigger was not registered")
		return
	}

	if err = d.Fire(context.Background(), tx, d.SourceTable()); err != nil {
		if constraint, ok := IsErrDuplicate(err); ok {
			fmt.Printf("duplicate: %s\n", constraint)
			return
		}

		handleExampleError(err)
		return
	}

	if err = tx.Commit(context.Background()); err != nil {
		handleExampleError(err)
		return
	}

	fmt.Printf("fired %d fragment(s) in transaction %d\n", len(d.Fragments()), tx.ExecutorContext().CurrentTxnID())
}

// ExampleDB_Dispatch fires the triggers of the catalog whenever the database reports a table event.
func ExampleDB_Dispatch() {
	db, err := openTestConnection()
	if err != nil {
		handleExampleError(err)
		return
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fired := make(chan Event, 1)
	closer, err := db.Dispatch(ctx, &DispatchOptions{}, func(evt Event, err error) error {
		if err != nil {
			fmt.Printf("dispatch: %s: %v\n", evt.GetPayload(), err)
			return nil
		}

		fired <- evt
		return nil
	})
	if err != nil {
		handleExampleError(err)
		return
	}
	defer closer.Close(context.Background())

	_, err = db.Exec(context.Background(), `INSERT INTO customers(email) VALUES('kataras2023@hotmail.com');`)
	if err != nil {
		handleExampleError(err)
		return
	}

	evt := <-fired
	fmt.Printf("%s on %s fired\n", evt.Type, evt.Table)
}
