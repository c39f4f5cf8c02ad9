// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mockdaemon

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/objstore/lib/clock"
	"github.com/bureau-foundation/objstore/lib/ipc"
)

func (s *Server) handleHandshake(ctx context.Context, session *Session, request *ipc.Request) (any, error) {
	if request.ProtocolVersion != s.protocolVersion {
		return nil, &ipc.RemoteError{
			Code:    ipc.CodeVersionMismatch,
			Message: fmt.Sprintf("daemon speaks protocol %d, client sent %d", s.protocolVersion, request.ProtocolVersion),
		}
	}
	if session.ID == 0 {
		session.ID = s.sessionIDs.Add(1)
		session.ClientVersion = request.ClientVersion
		s.logger.Info("session opened",
			"session", session.ID,
			"client_version", request.ClientVersion,
			"peer_pid", session.Peer.PID,
		)
	}
	return ipc.HandshakeReply{
		ProtocolVersion: s.protocolVersion,
		SessionID:       session.ID,
		InstanceID:      s.instanceID,
		ServerVersion:   s.serverVersion,
	}, nil
}

func (s *Server) handleGetMeta(ctx context.Context, session *Session, request *ipc.Request) (any, error) {
	if !request.ObjectID.IsValid() {
		return nil, &ipc.RemoteError{Code: ipc.CodeBadRequest, Message: "missing required field: object_id"}
	}

	if !request.SyncRemote {
		s.viewMu.Lock()
		raw, cached := s.view[request.ObjectID]
		s.viewMu.Unlock()
		if cached {
			return ipc.MetaReply{ObjectID: request.ObjectID, Meta: raw}, nil
		}
	}

	raw, err := s.store.Get(request.ObjectID)
	if err != nil {
		return nil, err
	}
	s.viewMu.Lock()
	s.view[request.ObjectID] = raw
	s.viewMu.Unlock()
	return ipc.MetaReply{ObjectID: request.ObjectID, Meta: raw}, nil
}

func (s *Server) handlePutMeta(ctx context.Context, session *Session, request *ipc.Request) (any, error) {
	if len(request.Meta) == 0 {
		return nil, &ipc.RemoteError{Code: ipc.CodeBadRequest, Message: "missing required field: meta"}
	}
	id, err := s.store.PutRaw(request.ObjectID, request.Meta)
	if err != nil {
		return nil, &ipc.RemoteError{Code: ipc.CodeBadRequest, Message: err.Error()}
	}
	return ipc.PutMetaReply{ObjectID: id}, nil
}

func (s *Server) handleDeleteMeta(ctx context.Context, session *Session, request *ipc.Request) (any, error) {
	if err := s.store.Delete(request.ObjectID); err != nil {
		return nil, err
	}
	s.viewMu.Lock()
	delete(s.view, request.ObjectID)
	s.viewMu.Unlock()
	return nil, nil
}

func (s *Server) handlePing(ctx context.Context, session *Session, request *ipc.Request) (any, error) {
	return ipc.PingReply{
		UptimeSeconds: clock.Since(s.clock, s.startedAt).Seconds(),
		Objects:       s.store.Len(),
	}, nil
}
