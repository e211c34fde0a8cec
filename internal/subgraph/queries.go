package subgraph

// Queries sent to the upstream subgraphs. Field names follow the upstream
// schemas, which differ between the two pool generations: the V2 schema
// reports per-direction amounts on a pair, the V3 schema reports signed
// amounts on a pool.

const swapsQueryV2 = `query RecentSwaps($first: Int!) {
  swaps(first: $first, orderBy: timestamp, orderDirection: desc) {
    id
    timestamp
    transaction { id blockNumber }
    pair {
      id
      token0 { id symbol name decimals }
      token1 { id symbol name decimals }
      reserve0
      reserve1
      volumeUSD
    }
    sender
    to
    amount0In
    amount1In
    amount0Out
    amount1Out
    amountUSD
    logIndex
  }
}`

const swapsQueryV3 = `query RecentSwaps($first: Int!) {
  swaps(first: $first, orderBy: timestamp, orderDirection: desc) {
    id
    timestamp
    transaction { id blockNumber }
    pool {
      id
      token0 { id symbol name decimals }
      token1 { id symbol name decimals }
      feeTier
      liquidity
      volumeUSD
      feesUSD
      totalValueLockedUSD
    }
    sender
    recipient
    origin
    amount0
    amount1
    amountUSD
    sqrtPriceX96
    tick
    logIndex
  }
}`

const metaQuery = `query Health {
  _meta {
    block { number }
  }
}`
