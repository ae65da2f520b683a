package ynison

import (
	"encoding/json"
	"fmt"
)

// parseRedirect разбирает ответ редиректора; host и redirect_ticket обязательны
func parseRedirect(data []byte) (host, ticket string, err error) {
	var resp redirectResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", "", fmt.Errorf("%w: decode redirect: %v", ErrProtocol, err)
	}
	if resp.Error != nil {
		return "", "", fmt.Errorf("%w: redirect error %d: %s", ErrProtocol, resp.Error.HTTPCode, resp.Error.Message)
	}
	if resp.Host == "" || resp.RedirectTicket == "" {
		return "", "", fmt.Errorf("%w: redirect without host or ticket", ErrProtocol)
	}
	return resp.Host, resp.RedirectTicket, nil
}

// ParseQueue разбирает кадр состояния в RawQueue.
// Отсутствие трека не ошибка: это QueueEmpty.
func ParseQueue(data []byte) (RawQueue, error) {
	var resp stateResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode state: %v", ErrProtocol, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: state error %d: %s", ErrProtocol, resp.Error.HTTPCode, resp.Error.Message)
	}

	state := resp.PlayerState
	if state == nil {
		return QueueEmpty{Paused: true}, nil
	}

	var pausedFlag *bool
	if state.Status != nil {
		pausedFlag = state.Status.Paused
	}

	queue := state.PlayerQueue
	if queue == nil || queue.CurrentPlayableIndex == nil || len(queue.PlayableList) == 0 {
		return QueueEmpty{Paused: pausedOr(pausedFlag, true)}, nil
	}

	idx := int64(*queue.CurrentPlayableIndex)
	if idx < 0 || idx >= int64(len(queue.PlayableList)) {
		return QueueEmpty{Paused: pausedOr(pausedFlag, true)}, nil
	}

	item := queue.PlayableList[idx]
	return QueueTrack{
		PlayableID:   string(item.PlayableID),
		AlbumID:      string(item.AlbumIDOptional),
		PlayableType: item.PlayableType,
		// protobuf JSON опускает false, поэтому для трека отсутствие флага = играет
		Paused: pausedOr(pausedFlag, false),
	}, nil
}

func pausedOr(flag *bool, def bool) bool {
	if flag == nil {
		return def
	}
	return *flag
}
