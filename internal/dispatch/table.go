package dispatch

import (
	"github.com/mertssmnoglu/redisfx/internal/engine"
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

type cmdFunc func(d *Dispatcher, sess *Session, args [][]byte, out *resp.Writer) error

// buildTable populates d.table from every command family's handlers. It
// is the one place a command name is bound to its arity and
// implementation, the dispatcher's equivalent of pkg/ajan/httpfx's route
// table.
func (d *Dispatcher) buildTable() {
	entries := []struct {
		name    string
		minArgs int
		maxArgs int
		fn      cmdFunc
	}{
		// Connection / server.
		{"PING", 0, 1, cmdPing},
		{"ECHO", 1, 1, cmdEcho},
		{"SELECT", 1, 1, cmdSelect},
		{"SWAPDB", 2, 2, cmdSwapDB},
		{"HELLO", 0, -1, cmdHello},
		{"RESET", 0, 0, cmdReset},
		{"QUIT", 0, 0, cmdQuit},
		{"CLIENT", 1, -1, cmdClient},
		{"WAIT", 2, 2, cmdWait},
		{"EVAL", 2, -1, cmdEval},
		{"EVALSHA", 2, -1, cmdEval},
		{"DBSIZE", 0, 0, cmdDBSize},
		{"FLUSHALL", 0, 1, cmdFlushAll},
		{"FLUSHDB", 0, 1, cmdFlushDB},
		{"TYPE", 1, 1, cmdType},
		{"EXISTS", 1, -1, cmdExists},
		{"DEL", 1, -1, cmdDel},
		{"UNLINK", 1, -1, cmdDel},
		{"RENAME", 2, 2, cmdRename},
		{"RENAMENX", 2, 2, cmdRenameNX},
		{"COPY", 2, -1, cmdCopy},
		{"MOVE", 2, 2, cmdMove},
		{"KEYS", 1, 1, cmdKeys},
		{"RANDOMKEY", 0, 0, cmdRandomKey},
		{"OBJECT", 2, 2, cmdObject},

		// Expiry.
		{"EXPIRE", 2, 3, cmdExpire(engine.ExpireAlways)},
		{"PEXPIRE", 2, 3, cmdPExpire(engine.ExpireAlways)},
		{"EXPIREAT", 2, 3, cmdExpireAt},
		{"PEXPIREAT", 2, 3, cmdPExpireAt},
		{"PERSIST", 1, 1, cmdPersist},
		{"TTL", 1, 1, cmdTTL},
		{"PTTL", 1, 1, cmdPTTL},
		{"EXPIRETIME", 1, 1, cmdExpireTime},
		{"PEXPIRETIME", 1, 1, cmdPExpireTime},
		{"DUMP", 1, 1, cmdDump},
		{"RESTORE", 3, -1, cmdRestore},

		// Strings + bits.
		{"SET", 2, -1, cmdSet},
		{"GET", 1, 1, cmdGet},
		{"GETSET", 2, 2, cmdGetSet},
		{"GETDEL", 1, 1, cmdGetDel},
		{"SETNX", 2, 2, cmdSetNX},
		{"MSET", 2, -1, cmdMSet},
		{"MSETNX", 2, -1, cmdMSetNX},
		{"MGET", 1, -1, cmdMGet},
		{"APPEND", 2, 2, cmdAppend},
		{"STRLEN", 1, 1, cmdStrLen},
		{"GETRANGE", 3, 3, cmdGetRange},
		{"SUBSTR", 3, 3, cmdGetRange},
		{"SETRANGE", 3, 3, cmdSetRange},
		{"INCR", 1, 1, cmdIncrBy(1)},
		{"DECR", 1, 1, cmdIncrBy(-1)},
		{"INCRBY", 2, 2, cmdIncrBy(1)},
		{"DECRBY", 2, 2, cmdIncrBy(-1)},
		{"INCRBYFLOAT", 2, 2, cmdIncrByFloat},
		{"SETBIT", 3, 3, cmdSetBit},
		{"GETBIT", 2, 2, cmdGetBit},
		{"BITCOUNT", 1, 4, cmdBitCount},
		{"BITOP", 3, -1, cmdBitOp},
		{"BITPOS", 2, 4, cmdBitPos},

		// Lists.
		{"LPUSH", 2, -1, cmdPush(engine.Left, false)},
		{"RPUSH", 2, -1, cmdPush(engine.Right, false)},
		{"LPUSHX", 2, -1, cmdPush(engine.Left, true)},
		{"RPUSHX", 2, -1, cmdPush(engine.Right, true)},
		{"LPOP", 1, 2, cmdPop(engine.Left)},
		{"RPOP", 1, 2, cmdPop(engine.Right)},
		{"LLEN", 1, 1, cmdLLen},
		{"LRANGE", 3, 3, cmdLRange},
		{"LINDEX", 2, 2, cmdLIndex},
		{"LSET", 3, 3, cmdLSet},
		{"LTRIM", 3, 3, cmdLTrim},
		{"LREM", 3, 3, cmdLRem},
		{"LPOS", 2, -1, cmdLPos},
		{"LINSERT", 4, 4, cmdLInsert},
		{"LMOVE", 4, 4, cmdLMove},
		{"RPOPLPUSH", 2, 2, cmdRPopLPush},

		// Sets.
		{"SADD", 2, -1, cmdSAdd},
		{"SREM", 2, -1, cmdSRem},
		{"SMEMBERS", 1, 1, cmdSMembers},
		{"SCARD", 1, 1, cmdSCard},
		{"SISMEMBER", 2, 2, cmdSIsMember},
		{"SMISMEMBER", 2, -1, cmdSMIsMember},
		{"SUNION", 1, -1, cmdSCombine(engine.SetOpUnion)},
		{"SINTER", 1, -1, cmdSCombine(engine.SetOpInter)},
		{"SDIFF", 1, -1, cmdSCombine(engine.SetOpDiff)},
		{"SUNIONSTORE", 2, -1, cmdSCombineStore(engine.SetOpUnion)},
		{"SINTERSTORE", 2, -1, cmdSCombineStore(engine.SetOpInter)},
		{"SDIFFSTORE", 2, -1, cmdSCombineStore(engine.SetOpDiff)},
		{"SINTERCARD", 2, -1, cmdSInterCard},
		{"SMOVE", 3, 3, cmdSMove},
		{"SPOP", 1, 2, cmdSPop},
		{"SRANDMEMBER", 1, 2, cmdSRandMember},

		// Hashes.
		{"HSET", 3, -1, cmdHSet},
		{"HMSET", 3, -1, cmdHSet},
		{"HSETNX", 3, 3, cmdHSetNX},
		{"HGET", 2, 2, cmdHGet},
		{"HMGET", 2, -1, cmdHMGet},
		{"HGETALL", 1, 1, cmdHGetAll},
		{"HKEYS", 1, 1, cmdHKeys},
		{"HVALS", 1, 1, cmdHVals},
		{"HLEN", 1, 1, cmdHLen},
		{"HEXISTS", 2, 2, cmdHExists},
		{"HDEL", 2, -1, cmdHDel},
		{"HINCRBY", 3, 3, cmdHIncrBy},
		{"HINCRBYFLOAT", 3, 3, cmdHIncrByFloat},
		{"HRANDFIELD", 1, 3, cmdHRandField},

		// Sorted sets.
		{"ZADD", 3, -1, cmdZAdd},
		{"ZREM", 2, -1, cmdZRem},
		{"ZSCORE", 2, 2, cmdZScore},
		{"ZMSCORE", 2, -1, cmdZMScore},
		{"ZINCRBY", 3, 3, cmdZIncrBy},
		{"ZCARD", 1, 1, cmdZCard},
		{"ZRANK", 2, 3, cmdZRank(false)},
		{"ZREVRANK", 2, 3, cmdZRank(true)},
		{"ZCOUNT", 3, 3, cmdZCount},
		{"ZRANGE", 3, -1, cmdZRange(false)},
		{"ZREVRANGE", 3, -1, cmdZRange(true)},
		{"ZRANGEBYSCORE", 3, -1, cmdZRangeByScore(false)},
		{"ZREVRANGEBYSCORE", 3, -1, cmdZRangeByScore(true)},
		{"ZPOPMIN", 1, 2, cmdZPop(false)},
		{"ZPOPMAX", 1, 2, cmdZPop(true)},
		{"BZPOPMIN", 2, -1, cmdBZPop(false)},
		{"BZPOPMAX", 2, -1, cmdBZPop(true)},
		{"ZRANDMEMBER", 1, 3, cmdZRandMember},
		{"ZRANGEBYLEX", 3, -1, cmdZRangeByLex(false)},
		{"ZREVRANGEBYLEX", 3, -1, cmdZRangeByLex(true)},
		{"ZLEXCOUNT", 3, 3, cmdZLexCount},
		{"ZREMRANGEBYSCORE", 3, 3, cmdZRemRangeByScore},
		{"ZREMRANGEBYRANK", 3, 3, cmdZRemRangeByRank},
		{"ZREMRANGEBYLEX", 3, 3, cmdZRemRangeByLex},
		{"ZUNIONSTORE", 3, -1, cmdZUnionStore(true)},
		{"ZINTERSTORE", 3, -1, cmdZUnionStore(false)},
		{"ZDIFF", 2, -1, cmdZDiff},
		{"ZDIFFSTORE", 3, -1, cmdZDiffStore},

		// Streams.
		{"XADD", 4, -1, cmdXAdd},
		{"XLEN", 1, 1, cmdXLen},
		{"XRANGE", 2, 4, cmdXRange(false)},
		{"XREVRANGE", 2, 4, cmdXRange(true)},
		{"XDEL", 2, -1, cmdXDel},
		{"XTRIM", 2, -1, cmdXTrim},
		{"XSETID", 2, 2, cmdXSetID},
		{"XGROUP", 1, -1, cmdXGroup},
		{"XREAD", 4, -1, cmdXRead},
		{"XREADGROUP", 6, -1, cmdXReadGroup},
		{"XACK", 3, -1, cmdXAck},
		{"XCLAIM", 5, -1, cmdXClaim},
		{"XAUTOCLAIM", 5, -1, cmdXAutoClaim},
		{"XPENDING", 2, -1, cmdXPending},
		{"XINFO", 2, 3, cmdXInfo},

		// Pub/sub.
		{"SUBSCRIBE", 1, -1, cmdSubscribe},
		{"UNSUBSCRIBE", 0, -1, cmdUnsubscribe},
		{"PSUBSCRIBE", 1, -1, cmdPSubscribe},
		{"PUNSUBSCRIBE", 0, -1, cmdPUnsubscribe},
		{"PUBLISH", 2, 2, cmdPublish},
		{"PUBSUB", 1, -1, cmdPubSub},

		// Transactions.
		{"MULTI", 0, 0, cmdMulti},
		{"EXEC", 0, 0, cmdExec},
		{"DISCARD", 0, 0, cmdDiscard},
		{"WATCH", 1, -1, cmdWatch},
		{"UNWATCH", 0, 0, cmdUnwatch},

		// Scan/iteration.
		{"SCAN", 1, -1, cmdScan},
		{"HSCAN", 2, -1, cmdHScan},
		{"SSCAN", 2, -1, cmdSScan},
		{"ZSCAN", 2, -1, cmdZScan},
	}

	d.table = make(map[string]handler, len(entries))
	for _, e := range entries {
		d.table[e.name] = handler{fn: e.fn, minArgs: e.minArgs, maxArgs: e.maxArgs}
	}
}
