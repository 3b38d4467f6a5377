package server

// Call signaling is a stateless relay: payloads are forwarded verbatim
// to one arbitrary live connection of the target user, with the
// caller's identity attached. The originator always gets a 202 ack;
// it means accepted for relay, never delivered. A target with no live
// connection means the signal is silently dropped, and nothing is
// persisted. Call collisions are the application's problem.

func (s *SocialServer) handleCallUser(evt *ClientEvent) {
	s.relay(evt, evt.CallUser.To, &ServerEvent{
		Timestamp: Now(),
		IncomingCall: &IncomingCall{
			From:     evt.client.user.Id,
			Offer:    evt.CallUser.Offer,
			CallType: evt.CallUser.CallType,
		},
	})
}

func (s *SocialServer) handleAnswerCall(evt *ClientEvent) {
	s.relay(evt, evt.AnswerCall.To, &ServerEvent{
		Timestamp: Now(),
		CallAnswered: &CallAnswered{
			From:   evt.client.user.Id,
			Answer: evt.AnswerCall.Answer,
		},
	})
}

func (s *SocialServer) handleIceCandidate(evt *ClientEvent) {
	s.relay(evt, evt.IceCandidate.To, &ServerEvent{
		Timestamp: Now(),
		IceCandidate: &IceCandidateNotice{
			From:      evt.client.user.Id,
			Candidate: evt.IceCandidate.Candidate,
		},
	})
}

func (s *SocialServer) handleEndCall(evt *ClientEvent) {
	s.relay(evt, evt.EndCall.To, &ServerEvent{
		Timestamp: Now(),
		CallEnded: &CallEnded{
			From: evt.client.user.Id,
		},
	})
}

func (s *SocialServer) relay(evt *ClientEvent, to int, out *ServerEvent) {
	if target, ok := s.registry.AnyConnection(to); ok {
		target.queueEvent(out)
	}

	evt.client.queueEvent(NoErrAccepted(evt.Id))
}
