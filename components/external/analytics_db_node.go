/*
 * Copyright 2024 The FlowGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package external

//node configuration example:
//{
//        "id": "s1",
//        "type": "external/analyticsDb",
//        "name": "record event",
//        "configuration": {
//			"driverName": "mysql",
//			"dsn": "root:root@tcp(127.0.0.1:3306)/analytics",
//			"sql": "insert into flow_events (graph_id, event_name, payload) values (?,?,?)",
//			"params": ["${metadata.graphId}", "${metadata.eventName}", "${data}"]
//        }
//  }
import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"github.com/flowgo/flowgo/api/types"
	"github.com/flowgo/flowgo/utils/maps"
	"github.com/flowgo/flowgo/utils/str"
)

// register the node
func init() {
	Registry.Add(&AnalyticsDbNode{})
}

const (
	sqlSelect = "SELECT"
	sqlInsert = "INSERT"
	sqlDelete = "DELETE"
	sqlUpdate = "UPDATE"
)

const (
	rowsAffectedKey = "rowsAffected"
	lastInsertIdKey = "lastInsertId"
)

// AnalyticsDbNodeConfiguration is the node configuration.
type AnalyticsDbNodeConfiguration struct {
	// DriverName selects the database driver, mysql or postgres.
	DriverName string
	// Dsn is the connection string, see sql.Open.
	Dsn string
	// PoolSize caps the connection pool.
	PoolSize int
	// Sql is the statement to run. ${metadata.key} and ${msg.key}
	// placeholders are expanded from the message.
	Sql string
	// Params are the statement parameters, template-expandable like Sql.
	Params []interface{}
	// GetOne returns a single record instead of an array for selects.
	GetOne bool
}

// AnalyticsDbNode runs a SQL statement per message, typically recording
// sequence and graph events for LiveOps analytics. Select results replace
// the message payload; writes report rowsAffected/lastInsertId through the
// metadata.
type AnalyticsDbNode struct {
	// Config is the node configuration.
	Config AnalyticsDbNodeConfiguration

	client *sql.DB
	mu     sync.Mutex
	// opType is SELECT/UPDATE/INSERT/DELETE, empty when the statement
	// itself is templated.
	opType       string
	sqlHasVar    bool
	paramsHasVar bool
}

// Type of the component.
func (x *AnalyticsDbNode) Type() string {
	return "external/analyticsDb"
}

func (x *AnalyticsDbNode) New() types.Node {
	return &AnalyticsDbNode{Config: AnalyticsDbNodeConfiguration{
		DriverName: "mysql",
		Dsn:        "root:root@tcp(127.0.0.1:3306)/analytics",
	}}
}

// Init loads the configuration and opens the connection pool lazily on the
// first message.
func (x *AnalyticsDbNode) Init(_ types.Config, configuration types.Configuration) error {
	err := maps.Map2Struct(configuration, &x.Config)
	if err != nil {
		return err
	}
	if x.Config.DriverName == "" {
		x.Config.DriverName = "mysql"
	}
	if x.Config.Sql == "" {
		return errors.New("sql can not be empty")
	}
	x.sqlHasVar = str.CheckHasVar(x.Config.Sql)
	if !x.sqlHasVar {
		x.opType = getOpType(x.Config.Sql)
		if err = checkOpType(x.opType, x.Config.Sql); err != nil {
			return err
		}
	}
	for _, item := range x.Config.Params {
		if v, ok := item.(string); ok && str.CheckHasVar(v) {
			x.paramsHasVar = true
			break
		}
	}
	return nil
}

// OnMsg runs the statement with the message's values bound in.
func (x *AnalyticsDbNode) OnMsg(ctx types.FlowContext, msg types.FlowMsg) {
	var env map[string]interface{}
	if x.sqlHasVar || x.paramsHasVar {
		env = ctx.GetEnv(msg, true)
	}
	var sqlStr = x.Config.Sql
	if x.sqlHasVar {
		sqlStr = str.ExecuteTemplate(sqlStr, env)
	}
	opType := x.opType
	if opType == "" {
		opType = getOpType(sqlStr)
		if err := checkOpType(opType, sqlStr); err != nil {
			ctx.TellFailure(msg, err)
			return
		}
	}
	var params []interface{}
	for _, item := range x.Config.Params {
		if v, ok := item.(string); ok && str.CheckHasVar(v) {
			params = append(params, str.ExecuteTemplate(v, env))
		} else {
			params = append(params, item)
		}
	}
	client, err := x.getClient()
	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}

	var data interface{}
	var rowsAffected int64
	var lastInsertId int64
	switch opType {
	case sqlSelect:
		data, err = x.query(client, sqlStr, params, x.Config.GetOne)
	case sqlUpdate, sqlDelete:
		rowsAffected, err = x.exec(client, sqlStr, params)
	case sqlInsert:
		rowsAffected, lastInsertId, err = x.insert(client, sqlStr, params)
	default:
		err = fmt.Errorf("unsupported sql statement: %s", sqlStr)
	}

	if err != nil {
		ctx.TellFailure(msg, err)
		return
	}
	switch opType {
	case sqlSelect:
		msg.Data = str.ToString(data)
	case sqlUpdate, sqlDelete:
		msg.Metadata.PutValue(rowsAffectedKey, str.ToString(rowsAffected))
	case sqlInsert:
		msg.Metadata.PutValue(rowsAffectedKey, str.ToString(rowsAffected))
		msg.Metadata.PutValue(lastInsertIdKey, str.ToString(lastInsertId))
	}
	ctx.TellSuccess(msg)
}

func (x *AnalyticsDbNode) query(client *sql.DB, sqlStr string, params []interface{}, getOne bool) (interface{}, error) {
	rows, err := client.Query(sqlStr, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := make([]interface{}, len(columns))
	for i := range columns {
		var v interface{}
		values[i] = &v
	}

	result := make([]map[string]interface{}, 0)
	for rows.Next() {
		if err = rows.Scan(values...); err != nil {
			return nil, err
		}
		m := make(map[string]interface{}, len(columns))
		for i, column := range columns {
			v := *(values[i].(*interface{}))
			// database/sql hands text columns back as []byte
			if b, ok := v.([]byte); ok {
				m[column] = string(b)
			} else {
				m[column] = v
			}
		}
		result = append(result, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if getOne {
		if len(result) > 0 {
			return result[0], nil
		}
		return nil, nil
	}
	return result, nil
}

func (x *AnalyticsDbNode) exec(client *sql.DB, sqlStr string, params []interface{}) (int64, error) {
	result, err := client.Exec(sqlStr, params...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (x *AnalyticsDbNode) insert(client *sql.DB, sqlStr string, params []interface{}) (int64, int64, error) {
	result, err := client.Exec(sqlStr, params...)
	if err != nil {
		return 0, 0, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, 0, err
	}
	// not every driver supports LastInsertId
	lastInsertId, _ := result.LastInsertId()
	return rowsAffected, lastInsertId, nil
}

// Destroy closes the connection pool.
func (x *AnalyticsDbNode) Destroy() {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.client != nil {
		_ = x.client.Close()
		x.client = nil
	}
}

func (x *AnalyticsDbNode) getClient() (*sql.DB, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.client != nil {
		return x.client, nil
	}
	client, err := sql.Open(x.Config.DriverName, x.Config.Dsn)
	if err != nil {
		return nil, err
	}
	if x.Config.PoolSize > 0 {
		client.SetMaxOpenConns(x.Config.PoolSize)
		client.SetMaxIdleConns(x.Config.PoolSize / 2)
	}
	if err = client.Ping(); err != nil {
		_ = client.Close()
		return nil, err
	}
	x.client = client
	return x.client, nil
}

func getOpType(sqlStr string) string {
	if sqlStr == "" {
		return ""
	}
	words := strings.Fields(sqlStr)
	return strings.ToUpper(words[0])
}

func checkOpType(opType string, sqlStr string) error {
	switch opType {
	case sqlSelect, sqlUpdate, sqlInsert, sqlDelete:
		return nil
	default:
		return fmt.Errorf("unsupported sql statement: %s", sqlStr)
	}
}
