// Package vision is the client for the Deltek Vision open API web service.
//
// A Client combines a session.Manager with an Endpoint that performs one
// round trip per call. Retrieval operations page through chunked results
// until the server marks the last chunk; every public operation returns a
// *message.Message, so transport faults, protocol failures and embedded row
// errors are all handled the same way by callers.
package vision

import (
	"context"
)

//go:generate go run go.uber.org/mock/mockgen -package vision_test -destination endpoint_mock_test.go github.com/ginjaninja78/vision-connector/internal/vision Endpoint

// Endpoint issues one remote operation and returns its raw string result.
// Implementations make exactly one network round trip and never retry.
type Endpoint interface {
	Call(ctx context.Context, req Request) (string, error)
}

// Request names a remote operation and its ordered arguments.
type Request struct {
	Operation string
	Params    []Param
}

// Param is one named argument of a remote operation. Values are sent as
// text; XML fragments are passed already serialized.
type Param struct {
	Name  string
	Value string
}

// Get returns the value of the named parameter.
func (r Request) Get(name string) (string, bool) {
	for _, p := range r.Params {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Remote operation names.
const (
	OpValidateLogin          = "ValidateLogin"
	OpGetRecordsByKey        = "GetRecordsByKey"
	OpGetRecordsByQuery      = "GetRecordsByQuery"
	OpSendData               = "SendDataToDeltekVision"
	OpSendDataWithReturn     = "SendDataToDeltekVisionWithReturn"
	OpDeleteRecords          = "DeleteRecords"
	OpPostTransaction        = "PostTransaction"
	OpGetTransactionByKey    = "GetTransactionByKey"
	OpGetTransactionByQuery  = "GetTransactionByQuery"
	OpGetUDICByKey           = "GetUDICByKey"
	OpGetUDICByQuery         = "GetUDICByQuery"
	OpAddUDIC                = "AddUDIC"
	OpUpdateUDIC             = "UpdateUDIC"
	OpDeleteUDIC             = "DeleteUDIC"
	OpGetPickList            = "GetPickList"
	OpExecuteStoredProcedure = "ExecuteStoredProcedure"
	OpGetSystemInfo          = "GetSystemInfo"
	OpGetCurrentUserInfo     = "GetCurrentUserInfo"
	OpGetDatabases           = "GetDatabases"
	OpMyTest                 = "MyTest"
)

// Parameter names used by the remote operations.
const (
	ParamConnInfo       = "ConnInfoXML"
	ParamInfoCenter     = "InfoCenterXML"
	ParamKeys           = "KeysXML"
	ParamQuery          = "QueryXML"
	ParamRecordDetail   = "RecordDetail"
	ParamInfoCenterName = "InfoCenterName"
	ParamData           = "DataXML"
	ParamReturnMessage  = "ReturnMessage"
	ParamTransType      = "TransType"
	ParamBatchList      = "BatchList"
	ParamPeriod         = "Period"
	ParamUDICName       = "UDICName"
	ParamKey            = "Key"
	ParamPickList       = "PickListXML"
	ParamStoredProc     = "StoredProcName"
	ParamParameters     = "ParametersXML"
)

func connParam(connInfo string) Param {
	return Param{Name: ParamConnInfo, Value: connInfo}
}
