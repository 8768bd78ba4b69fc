package processor

import (
	"fmt"
	"reflect"
	"strings"
)

type methodType struct {
	method    reflect.Method
	ArgType   reflect.Type
	ReplyType reflect.Type
}

// newArgs allocates fresh args and reply values for one call.
func (m *methodType) newArgs() (argv, replyv reflect.Value) {
	return reflect.New(m.ArgType), reflect.New(m.ReplyType)
}

type service struct {
	name   string
	rcvr   reflect.Value
	typ    reflect.Type
	method map[string]*methodType
}

// newService creates a service from a receiver pointer and scans its
// methods for the RPC signature.
func newService(rcvr any) (*service, error) {
	typ := reflect.TypeOf(rcvr)
	if typ.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("rpc: rcvr must be a pointer, got %s", typ.Kind())
	}
	if typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("rpc: rcvr must point to a struct, got %s", typ.Elem().Kind())
	}
	srv := &service{
		name:   typ.Elem().Name(),
		rcvr:   reflect.ValueOf(rcvr),
		typ:    typ,
		method: make(map[string]*methodType),
	}
	srv.registerMethods()
	return srv, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// registerMethods keeps the exported methods matching the RPC shape:
// 3 inputs (receiver, *Args, *Reply), one error output.
func (s *service) registerMethods() {
	for i := 0; i < s.typ.NumMethod(); i++ {
		method := s.typ.Method(i)
		if method.Type.NumIn() != 3 || method.Type.NumOut() != 1 || method.Type.Out(0) != errorType ||
			method.Type.In(1).Kind() != reflect.Ptr || method.Type.In(2).Kind() != reflect.Ptr {
			continue
		}

		s.method[method.Name] = &methodType{
			method:    method,
			ArgType:   method.Type.In(1).Elem(),
			ReplyType: method.Type.In(2).Elem(),
		}
	}
}

// call invokes the method by reflection.
func (s *service) call(mType *methodType, argv, replyv reflect.Value) error {
	args := [3]reflect.Value{s.rcvr, argv, replyv}
	results := mType.method.Func.Call(args[:])
	if !results[0].IsNil() {
		return results[0].Interface().(error)
	}
	return nil
}

// resolve parses "Service.Method" and looks both parts up.
func (p *ServiceProcessor) resolve(serviceMethod string) (*service, *methodType, error) {
	split := strings.Split(serviceMethod, ".")
	if len(split) != 2 {
		return nil, nil, fmt.Errorf("invalid service method format: %q", serviceMethod)
	}
	svc, ok := p.serviceMap[split[0]]
	if !ok {
		return nil, nil, fmt.Errorf("unknown service: %q", split[0])
	}
	mtype, ok := svc.method[split[1]]
	if !ok {
		return nil, nil, fmt.Errorf("unknown method: %q", serviceMethod)
	}
	return svc, mtype, nil
}
